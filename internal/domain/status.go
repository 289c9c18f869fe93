package domain

// Placeholder labels substituted for missing categorical values. They are part
// of the output contract: clients filter and group on them like any other value.
const (
	SentinelPayment    = "SIN_REGISTRO"
	SentinelProduct    = "Producto desconocido"
	SentinelBrand      = "Sin marca"
	SentinelCategory   = "Sin categoría"
	SentinelCity       = "Sin ciudad"
	SentinelBranch     = "Sin sucursal"
	SentinelGender     = "No especificado"
	SentinelTier       = "Sin nivel"
	SentinelMembership = "Sin membresía"
	SentinelCountry    = "Sin país"
	SentinelEmployee   = "Sin empleado"
	SentinelCustomer   = "Sin cliente"
	SentinelCardType   = "Sin tarjeta"
	SentinelSupplier   = "Sin proveedor"
	SentinelStatus     = "Sin estado"
	SentinelShift      = "Sin turno"
)

var defaultSentinels = map[string]string{
	DimProduct:  SentinelProduct,
	DimBrand:    SentinelBrand,
	DimCategory: SentinelCategory,
	DimPayment:  SentinelPayment,
}

// DefaultSentinel returns the built-in placeholder for a core dimension.
func DefaultSentinel(dim string) (string, bool) {
	s, ok := defaultSentinels[dim]
	return s, ok
}
