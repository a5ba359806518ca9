// AngelaMos | 2026
// dto.go

package address

type AddressRequest struct {
	AddressLine1 string  `json:"address_line_1" validate:"required,max=255"`
	AddressLine2 *string `json:"address_line_2" validate:"omitempty,max=255"`
	City         string  `json:"city"           validate:"required,max=100"`
	State        string  `json:"state"          validate:"required,max=100"`
	PostalCode   string  `json:"postal_code"    validate:"required,max=20"`
	Country      string  `json:"country"        validate:"required,max=100"`
	IsDefault    bool    `json:"is_default"`
}

func (r AddressRequest) apply(a *Address) {
	a.AddressLine1 = r.AddressLine1
	a.AddressLine2 = r.AddressLine2
	a.City = r.City
	a.State = r.State
	a.PostalCode = r.PostalCode
	a.Country = r.Country
	a.IsDefault = r.IsDefault
}
