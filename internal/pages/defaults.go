package pages

import (
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/analytics"
	"github.com/andresuchdata/sportstore-dash/backend-go/internal/domain"
)

// Extra dimension and measure names used by the store pages.
const (
	DimCity       = "city"
	DimCountry    = "country"
	DimBranch     = "branch"
	DimCustomer   = "customer"
	DimCustomerID = "customer_id"
	DimEmployee   = "employee"
	DimGender     = "gender"
	DimSupplier   = "supplier"
	DimCardType   = "card_type"
	DimMembership = "membership"
	DimTier       = "tier"
	DimStatus     = "status"
	DimShift      = "shift"

	MeasureQuantity     = "quantity"
	MeasureSubtotal     = "subtotal"
	MeasurePoints       = "points"
	MeasureStock        = "stock"
	MeasurePrice        = "price"
	MeasureContractDays = "contract_days"
)

const salesQuery = `
	SELECT
		v.id_venta,
		v.fecha_venta,
		v.monto_total,
		v.descuento_aplicado,
		p.nombre_producto,
		p.marca,
		cat.nombre_categoria,
		CONCAT(c.nombre, ' ', c.apellido_paterno, ' ', c.apellido_materno) AS nombre_cliente,
		c.genero,
		dc.ciudad AS ciudad_cliente,
		CONCAT(e.nombre, ' ', e.apellido_paterno, ' ', e.apellido_materno) AS nombre_empleado,
		s.nombre_sucursal,
		prov.nombre_proveedor,
		qr.id_qr,
		t.id_tarjeta,
		ef.id_efectivo
	FROM venta v
	LEFT JOIN producto p ON p.id_venta = v.id_venta
	LEFT JOIN categoria cat ON cat.id_producto = p.id_producto
	LEFT JOIN cliente c ON c.id_cliente = v.id_cliente
	LEFT JOIN direccion_cliente dc ON dc.id_cliente = c.id_cliente
	LEFT JOIN empleado e ON e.id_empleado = v.id_empleado
	LEFT JOIN empleado_sucursal es ON es.id_empleado = e.id_empleado
	LEFT JOIN sucursal s ON s.id_sucursal = es.id_sucursal
	LEFT JOIN pago pg ON pg.id_pago = v.id_pago
	LEFT JOIN qr ON qr.id_pago = pg.id_pago
	LEFT JOIN tarjeta t ON t.id_pago = pg.id_pago
	LEFT JOIN efectivo ef ON ef.id_pago = pg.id_pago
	LEFT JOIN proveedor prov ON prov.id_proveedor = p.id_proveedor
`

const salesDetailQuery = `
	SELECT
		v.id_venta,
		v.fecha_venta,
		v.monto_total,
		v.descuento_aplicado,
		df.descripcion_producto AS nombre_producto,
		df.cantidad,
		df.monto_total AS subtotal,
		qr.id_qr,
		ef.id_efectivo,
		t.id_tarjeta,
		t.tipo_tarjeta
	FROM venta v
	LEFT JOIN factura f ON v.id_factura = f.id_factura
	LEFT JOIN detalle_factura df ON df.id_factura = f.id_factura
	LEFT JOIN pago pg ON v.id_pago = pg.id_pago
	LEFT JOIN qr ON pg.id_pago = qr.id_pago
	LEFT JOIN efectivo ef ON pg.id_pago = ef.id_pago
	LEFT JOIN tarjeta t ON pg.id_pago = t.id_pago
`

const customersQuery = `
	SELECT
		cl.id_cliente,
		CONCAT(cl.nombre, ' ', cl.apellido_paterno, ' ', cl.apellido_materno) AS nombre_completo,
		cl.genero,
		dc.pais,
		dc.ciudad,
		cr.fecha_registro,
		em.estado AS estado_membresia,
		pf.puntos_acumulados,
		pf.nivel AS nivel_fidelizacion,
		v.id_venta,
		v.monto_total AS monto_venta,
		v.fecha_venta,
		v.descuento_aplicado
	FROM cliente cl
	LEFT JOIN direccion_cliente dc ON dc.id_cliente = cl.id_cliente
	LEFT JOIN cliente_registrado cr ON cr.id_cliente = cl.id_cliente
	LEFT JOIN historial_membresia hm ON hm.id_cliente_registrado = cr.id_cliente_registrado
	LEFT JOIN estado_membresia em ON em.id_historial_membresia = hm.id_historial_membresia
	LEFT JOIN programa_fidelizacion pf ON pf.id_cliente = cl.id_cliente
	LEFT JOIN venta v ON v.id_cliente = cl.id_cliente
`

func sumNet(groupBy ...string) domain.AggregateRequest {
	return domain.AggregateRequest{GroupBy: groupBy, Measure: domain.MeasureNet, Reduction: domain.ReduceSum}
}

func top10(req domain.AggregateRequest) domain.AggregateRequest {
	req.Sort = domain.SortValueDesc
	req.TopN = 10
	return req
}

func ranked(req domain.AggregateRequest) domain.AggregateRequest {
	req.Sort = domain.SortValueDesc
	return req
}

func countBy(groupBy ...string) domain.AggregateRequest {
	return domain.AggregateRequest{GroupBy: groupBy, Reduction: domain.ReduceCount}
}

// Sales is the sales overview page.
func Sales() *Page {
	return &Page{
		Name:   "ventas",
		Title:  "Dashboard de Ventas",
		Source: SourceSpec{Kind: SourceSQL, Query: salesQuery},
		Normalizer: analytics.NormalizerConfig{
			Columns: analytics.DefaultColumns,
			Payment: analytics.DefaultPaymentRules,
			Dimensions: []analytics.DimensionColumn{
				{Name: DimCustomer, Column: "nombre_cliente", Sentinel: domain.SentinelCustomer},
				{Name: DimGender, Column: "genero", Sentinel: domain.SentinelGender},
				{Name: DimCity, Column: "ciudad_cliente", Sentinel: domain.SentinelCity},
				{Name: DimEmployee, Column: "nombre_empleado", Sentinel: domain.SentinelEmployee},
				{Name: DimBranch, Column: "nombre_sucursal", Sentinel: domain.SentinelBranch},
				{Name: DimSupplier, Column: "nombre_proveedor", Sentinel: domain.SentinelSupplier},
			},
		},
		Filters: []FilterDef{
			{Dimension: domain.DimBrand, Label: "Marca"},
			{Dimension: domain.DimCategory, Label: "Categoría"},
			{Dimension: domain.DimPayment, Label: "Tipo de pago"},
			{Dimension: DimCity, Label: "Ciudad"},
			{Dimension: DimBranch, Label: "Sucursal"},
		},
		KPIs: []KPIDef{
			{Name: "total_sales", Title: "Ventas netas", Unit: "Bs", Kind: KPISummary, Measure: domain.MeasureNet, Reduction: domain.ReduceSum},
			{Name: "sale_count", Title: "Cantidad de ventas", Kind: KPISummary, Reduction: domain.ReduceCountDistinct, DistinctBy: domain.DimSaleID},
			{Name: "average_ticket", Title: "Ticket promedio", Unit: "Bs", Kind: KPISummary, Measure: domain.MeasureNet, Reduction: domain.ReduceMean},
			{Name: "top_product", Title: "Producto más vendido", Unit: "Bs", Kind: KPITop, Measure: domain.MeasureNet, GroupBy: domain.DimProduct},
		},
		Visualizations: []VisualizationDef{
			{Name: "daily_sales", Title: "Ventas por día", Chart: "line", Request: withSort(sumNet(domain.DimDate), domain.SortKeyAsc)},
			{Name: "monthly_sales", Title: "Ventas por mes", Chart: "line", Request: withSort(sumNet(domain.DimMonthYear), domain.SortKeyAsc)},
			{Name: "top_products", Title: "Top 10 productos", Chart: "bar", Request: top10(sumNet(domain.DimProduct))},
			{Name: "brand_share", Title: "Ventas por marca", Chart: "pie", Request: ranked(sumNet(domain.DimBrand))},
			{Name: "category_sales", Title: "Ventas por categoría", Chart: "bar", Request: ranked(sumNet(domain.DimCategory))},
			{Name: "top_customers", Title: "Top 10 clientes", Chart: "bar", Request: top10(sumNet(DimCustomer))},
			{Name: "gender_sales", Title: "Ventas por género", Chart: "pie", Request: ranked(sumNet(DimGender))},
			{Name: "top_cities", Title: "Top 10 ciudades", Chart: "bar", Request: top10(sumNet(DimCity))},
			{Name: "branch_sales", Title: "Ventas por sucursal", Chart: "bar", Request: ranked(sumNet(DimBranch))},
			{Name: "top_employees", Title: "Top 10 empleados", Chart: "bar", Request: top10(sumNet(DimEmployee))},
			{Name: "payment_methods", Title: "Ventas por tipo de pago", Chart: "pie", Request: ranked(countBy(domain.DimPayment))},
			{Name: "monthly_by_payment", Title: "Ventas mensuales por tipo de pago", Chart: "stacked_bar", Request: withSort(sumNet(domain.DimMonthYear, domain.DimPayment), domain.SortKeyAsc)},
			{Name: "weekday_sales", Title: "Ventas por día de la semana", Chart: "bar", Request: ranked(sumNet(domain.DimWeekday))},
			{Name: "quarterly_sales", Title: "Ventas por trimestre", Chart: "bar", Request: withSort(sumNet(domain.DimYear, domain.DimQuarter), domain.SortKeyAsc)},
		},
	}
}

// SalesDetail is the invoice-line page with card type breakdown.
func SalesDetail() *Page {
	return &Page{
		Name:   "ventas_detalle",
		Title:  "Detalle de Ventas",
		Source: SourceSpec{Kind: SourceSQL, Query: salesDetailQuery},
		Normalizer: analytics.NormalizerConfig{
			Columns: analytics.ColumnMap{
				SaleID:         "id_venta",
				SaleDate:       "fecha_venta",
				GrossAmount:    "monto_total",
				DiscountAmount: "descuento_aplicado",
				ProductName:    "nombre_producto",
			},
			Payment: analytics.PaymentRules{Indicators: []analytics.PaymentIndicator{
				{Column: "id_qr", Label: "QR"},
				{Column: "id_efectivo", Label: "Efectivo"},
				{Column: "id_tarjeta", Label: "Tarjeta", DetailColumn: "tipo_tarjeta"},
			}},
			Dimensions: []analytics.DimensionColumn{
				{Name: DimCardType, Column: "tipo_tarjeta", Sentinel: domain.SentinelCardType},
			},
			Measures: []analytics.MeasureColumn{
				{Name: MeasureQuantity, Column: "cantidad"},
				{Name: MeasureSubtotal, Column: "subtotal"},
			},
		},
		Filters: []FilterDef{
			{Dimension: domain.DimPayment, Label: "Método de pago"},
			{Dimension: DimCardType, Label: "Tipo de tarjeta", Relaxed: true},
			{Dimension: domain.DimProduct, Label: "Producto"},
			{Dimension: domain.DimMonthYear, Label: "Mes"},
		},
		KPIs: []KPIDef{
			{Name: "total_sold", Title: "Total vendido", Unit: "Bs", Kind: KPISummary, Measure: MeasureSubtotal, Reduction: domain.ReduceSum},
			{Name: "units_sold", Title: "Unidades vendidas", Kind: KPISummary, Measure: MeasureQuantity, Reduction: domain.ReduceSum},
			{Name: "sale_count", Title: "Cantidad de ventas", Kind: KPISummary, Reduction: domain.ReduceCountDistinct, DistinctBy: domain.DimSaleID},
			{Name: "average_line", Title: "Promedio por línea", Unit: "Bs", Kind: KPISummary, Measure: MeasureSubtotal, Reduction: domain.ReduceMean},
			{Name: "top_product", Title: "Producto más vendido", Kind: KPITop, Measure: MeasureQuantity, GroupBy: domain.DimProduct},
		},
		Visualizations: []VisualizationDef{
			{Name: "monthly_sales", Title: "Ventas por mes", Chart: "line", Request: domain.AggregateRequest{
				GroupBy: []string{domain.DimMonthYear}, Measure: MeasureSubtotal, Reduction: domain.ReduceSum, Sort: domain.SortKeyAsc,
			}},
			{Name: "top_products", Title: "Top 10 productos por unidades", Chart: "bar", Request: top10(domain.AggregateRequest{
				GroupBy: []string{domain.DimProduct}, Measure: MeasureQuantity, Reduction: domain.ReduceSum,
			})},
			{Name: "payment_methods", Title: "Ventas por método de pago", Chart: "pie", Request: ranked(domain.AggregateRequest{
				GroupBy: []string{domain.DimPayment}, Reduction: domain.ReduceCountDistinct, DistinctBy: domain.DimSaleID,
			})},
			{Name: "card_types", Title: "Ventas por tipo de tarjeta", Chart: "bar", Request: ranked(domain.AggregateRequest{
				GroupBy: []string{DimCardType}, Measure: MeasureSubtotal, Reduction: domain.ReduceSum,
			})},
			{Name: "monthly_by_product", Title: "Ventas mensuales por producto", Chart: "stacked_bar", Request: domain.AggregateRequest{
				GroupBy: []string{domain.DimMonthYear, domain.DimProduct}, Measure: MeasureSubtotal, Reduction: domain.ReduceSum, Sort: domain.SortKeyAsc,
			}},
		},
	}
}

// Customers is the customer and loyalty page. Its date is the customer's
// registration date, so customers without purchases survive a date range.
func Customers() *Page {
	return &Page{
		Name:   "clientes",
		Title:  "Dashboard de Clientes",
		Source: SourceSpec{Kind: SourceSQL, Query: customersQuery},
		Normalizer: analytics.NormalizerConfig{
			Columns: analytics.ColumnMap{
				SaleID:         "id_venta",
				SaleDate:       "fecha_registro",
				GrossAmount:    "monto_venta",
				DiscountAmount: "descuento_aplicado",
			},
			Dimensions: []analytics.DimensionColumn{
				{Name: DimCustomerID, Column: "id_cliente"},
				{Name: DimCustomer, Column: "nombre_completo", Sentinel: domain.SentinelCustomer},
				{Name: DimGender, Column: "genero", Sentinel: domain.SentinelGender},
				{Name: DimCountry, Column: "pais", Sentinel: domain.SentinelCountry},
				{Name: DimCity, Column: "ciudad", Sentinel: domain.SentinelCity},
				{Name: DimMembership, Column: "estado_membresia", Sentinel: domain.SentinelMembership},
				{Name: DimTier, Column: "nivel_fidelizacion", Sentinel: domain.SentinelTier},
			},
			Measures: []analytics.MeasureColumn{
				{Name: MeasurePoints, Column: "puntos_acumulados"},
			},
		},
		Filters: []FilterDef{
			{Dimension: DimGender, Label: "Género"},
			{Dimension: DimCountry, Label: "País"},
			{Dimension: DimCity, Label: "Ciudad"},
			{Dimension: DimMembership, Label: "Membresía"},
			{Dimension: DimTier, Label: "Nivel de fidelización"},
		},
		KPIs: []KPIDef{
			{Name: "customers", Title: "Clientes", Kind: KPISummary, Reduction: domain.ReduceCountDistinct, DistinctBy: DimCustomerID},
			{Name: "active_memberships", Title: "Membresías activas", Kind: KPISummary, Reduction: domain.ReduceCountDistinct, DistinctBy: DimCustomerID,
				Where: []domain.CategoricalPredicate{{Dimension: DimMembership, Values: []string{"Activa"}}}},
			// one row per sale, so points are taken once per customer before averaging
			{Name: "average_points", Title: "Promedio de puntos", Kind: KPIGroupMean, Measure: MeasurePoints, Reduction: domain.ReduceFirst, GroupBy: DimCustomerID},
			{Name: "total_spent", Title: "Total comprado", Unit: "Bs", Kind: KPISummary, Measure: domain.MeasureNet, Reduction: domain.ReduceSum},
			{Name: "top_customer", Title: "Mejor cliente", Unit: "Bs", Kind: KPITop, Measure: domain.MeasureNet, GroupBy: DimCustomer},
		},
		Visualizations: []VisualizationDef{
			{Name: "customers_by_city", Title: "Clientes únicos por ciudad", Chart: "bar", Request: top10(domain.AggregateRequest{
				GroupBy: []string{DimCity}, Reduction: domain.ReduceCountDistinct, DistinctBy: DimCustomerID,
			})},
			{Name: "customers_by_tier", Title: "Clientes por nivel", Chart: "pie", Request: ranked(domain.AggregateRequest{
				GroupBy: []string{DimTier}, Reduction: domain.ReduceCountDistinct, DistinctBy: DimCustomerID,
			})},
			{Name: "customers_by_gender", Title: "Clientes por género", Chart: "pie", Request: ranked(domain.AggregateRequest{
				GroupBy: []string{DimGender}, Reduction: domain.ReduceCountDistinct, DistinctBy: DimCustomerID,
			})},
			{Name: "spending_by_membership", Title: "Compras por membresía", Chart: "bar", Request: ranked(sumNet(DimMembership))},
			{Name: "top_customers", Title: "Top 10 clientes", Chart: "bar", Request: top10(sumNet(DimCustomer))},
			{Name: "points_by_customer", Title: "Puntos acumulados", Chart: "bar", Request: top10(domain.AggregateRequest{
				GroupBy: []string{DimCustomer}, Measure: MeasurePoints, Reduction: domain.ReduceFirst,
			})},
			{Name: "monthly_registrations", Title: "Registros mensuales", Chart: "line", Request: domain.AggregateRequest{
				GroupBy: []string{domain.DimMonthYear}, Reduction: domain.ReduceCountDistinct, DistinctBy: DimCustomerID, Sort: domain.SortKeyAsc,
			}},
		},
	}
}

// Inventory is the product stock page, fed from a file export.
func Inventory() *Page {
	return &Page{
		Name:   "inventario",
		Title:  "Dashboard de Inventario",
		Source: SourceSpec{Kind: SourceFile, Path: "inventario.csv"},
		Normalizer: analytics.NormalizerConfig{
			Columns: analytics.ColumnMap{
				SaleID:      "id_producto",
				ProductName: "producto",
				Brand:       "marca",
				Category:    "categoria",
			},
			Dimensions: []analytics.DimensionColumn{
				{Name: DimStatus, Column: "estado", Sentinel: domain.SentinelStatus},
				{Name: DimSupplier, Column: "proveedor", Sentinel: domain.SentinelSupplier},
			},
			Measures: []analytics.MeasureColumn{
				{Name: MeasureStock, Column: "stock"},
				{Name: MeasurePrice, Column: "precio"},
			},
		},
		Filters: []FilterDef{
			{Dimension: domain.DimBrand, Label: "Marca"},
			{Dimension: domain.DimCategory, Label: "Categoría"},
			{Dimension: DimStatus, Label: "Estado"},
			{Dimension: DimSupplier, Label: "Proveedor"},
		},
		KPIs: []KPIDef{
			{Name: "products", Title: "Productos", Kind: KPISummary, Reduction: domain.ReduceCount},
			{Name: "total_stock", Title: "Stock total", Kind: KPISummary, Measure: MeasureStock, Reduction: domain.ReduceSum},
			{Name: "average_price", Title: "Precio promedio", Unit: "Bs", Kind: KPISummary, Measure: MeasurePrice, Reduction: domain.ReduceMean},
			{Name: "out_of_stock", Title: "Agotados", Kind: KPISummary, Reduction: domain.ReduceCount,
				Where: []domain.CategoricalPredicate{{Dimension: DimStatus, Values: []string{"Agotado"}}}},
		},
		Visualizations: []VisualizationDef{
			{Name: "stock_by_brand", Title: "Stock por marca", Chart: "bar", Request: ranked(domain.AggregateRequest{
				GroupBy: []string{domain.DimBrand}, Measure: MeasureStock, Reduction: domain.ReduceSum,
			})},
			{Name: "stock_by_category", Title: "Stock por categoría", Chart: "pie", Request: ranked(domain.AggregateRequest{
				GroupBy: []string{domain.DimCategory}, Measure: MeasureStock, Reduction: domain.ReduceSum,
			})},
			{Name: "min_price_by_category", Title: "Precio mínimo por categoría", Chart: "bar", Request: domain.AggregateRequest{
				GroupBy: []string{domain.DimCategory}, Measure: MeasurePrice, Reduction: domain.ReduceMin,
			}},
			{Name: "mean_price_by_category", Title: "Precio promedio por categoría", Chart: "bar", Request: domain.AggregateRequest{
				GroupBy: []string{domain.DimCategory}, Measure: MeasurePrice, Reduction: domain.ReduceMean,
			}},
			{Name: "max_price_by_category", Title: "Precio máximo por categoría", Chart: "bar", Request: domain.AggregateRequest{
				GroupBy: []string{domain.DimCategory}, Measure: MeasurePrice, Reduction: domain.ReduceMax,
			}},
			{Name: "products_by_status", Title: "Productos por estado", Chart: "pie", Request: ranked(countBy(DimStatus))},
			{Name: "top_stock", Title: "Top 10 productos con más stock", Chart: "bar", Request: top10(domain.AggregateRequest{
				GroupBy: []string{domain.DimProduct}, Measure: MeasureStock, Reduction: domain.ReduceSum,
			})},
			{Name: "stock_by_supplier", Title: "Stock por proveedor", Chart: "bar", Request: ranked(domain.AggregateRequest{
				GroupBy: []string{DimSupplier}, Measure: MeasureStock, Reduction: domain.ReduceSum,
			})},
		},
	}
}

// Employees is the staff roster page, fed from a file export.
func Employees() *Page {
	return &Page{
		Name:   "empleados",
		Title:  "Dashboard de Empleados",
		Source: SourceSpec{Kind: SourceFile, Path: "empleados.csv"},
		Normalizer: analytics.NormalizerConfig{
			Columns: analytics.ColumnMap{
				SaleID:   "id_empleado",
				SaleDate: "fecha_inicio_contrato",
			},
			Dimensions: []analytics.DimensionColumn{
				{Name: DimEmployee, Column: "empleado", Sentinel: domain.SentinelEmployee},
				{Name: DimBranch, Column: "nombre_sucursal", Sentinel: domain.SentinelBranch},
				{Name: DimShift, Column: "nombre_turno", Sentinel: domain.SentinelShift},
				{Name: DimStatus, Column: "nombre_estado", Sentinel: domain.SentinelStatus},
			},
			Measures: []analytics.MeasureColumn{
				{Name: MeasureContractDays, Column: "duracion_contrato"},
			},
		},
		Filters: []FilterDef{
			{Dimension: DimBranch, Label: "Sucursal"},
			{Dimension: DimShift, Label: "Turno"},
			{Dimension: DimStatus, Label: "Estado"},
		},
		KPIs: []KPIDef{
			{Name: "employees", Title: "Empleados", Kind: KPISummary, Reduction: domain.ReduceCount},
			{Name: "active", Title: "Activos", Kind: KPISummary, Reduction: domain.ReduceCount,
				Where: []domain.CategoricalPredicate{{Dimension: DimStatus, Values: []string{"Activo"}}}},
			{Name: "average_contract", Title: "Duración promedio (días)", Kind: KPISummary, Measure: MeasureContractDays, Reduction: domain.ReduceMean},
			{Name: "branches", Title: "Sucursales con personal", Kind: KPISummary, Reduction: domain.ReduceCountDistinct, DistinctBy: DimBranch},
		},
		Visualizations: []VisualizationDef{
			{Name: "staff_by_branch", Title: "Empleados por sucursal", Chart: "bar", Request: ranked(countBy(DimBranch))},
			{Name: "staff_by_status", Title: "Empleados por estado", Chart: "pie", Request: ranked(countBy(DimStatus))},
			{Name: "staff_by_shift", Title: "Empleados por turno", Chart: "pie", Request: ranked(countBy(DimShift))},
			{Name: "branch_by_shift", Title: "Turnos por sucursal", Chart: "stacked_bar", Request: withSort(countBy(DimBranch, DimShift), domain.SortKeyAsc)},
			{Name: "hires_by_month", Title: "Contrataciones por mes", Chart: "line", Request: withSort(countBy(domain.DimMonthYear), domain.SortKeyAsc)},
			{Name: "contract_by_branch", Title: "Duración promedio por sucursal", Chart: "bar", Request: ranked(domain.AggregateRequest{
				GroupBy: []string{DimBranch}, Measure: MeasureContractDays, Reduction: domain.ReduceMean,
			})},
		},
	}
}

func withSort(req domain.AggregateRequest, order domain.SortOrder) domain.AggregateRequest {
	req.Sort = order
	return req
}

// DefaultRegistry registers the store pages in menu order.
func DefaultRegistry() (*Registry, error) {
	return NewRegistry(Sales(), SalesDetail(), Customers(), Inventory(), Employees())
}
