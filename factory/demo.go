package factory

// =============================================================================
// DEMO HOUSE
// =============================================================================
//
// Four flats, one mid-year move-out with a new tenant, a wallbox submeter on
// the house electricity meter and a few months of rent payments. Billing
// year 2025 is complete; 2024 carries only the property tax so year
// filtering is visible.

const demoDatasetJSON = `{
  "building": {
    "name": "Lindenstraße 12",
    "address": "Lindenstraße 12, 04109 Leipzig",
    "total_area": "300",
    "total_occupants": 8,
    "total_units": 4
  },
  "units": [
    {"id": "u-eg-links",  "name": "EG links",  "area": "75.5", "base_rent": "650"},
    {"id": "u-eg-rechts", "name": "EG rechts", "area": "100",  "base_rent": "820"},
    {"id": "u-og-links",  "name": "OG links",  "area": "74.5", "base_rent": "640"},
    {"id": "u-og-rechts", "name": "OG rechts", "area": "50",   "base_rent": "450"}
  ],
  "tenancies": [
    {"id": "t-berger",  "unit_id": "u-eg-links",  "tenant_name": "Berger",  "occupants": 2, "monthly_prepayment": "200", "move_in": "2021-04-01"},
    {"id": "t-yilmaz",  "unit_id": "u-eg-rechts", "tenant_name": "Yilmaz",  "occupants": 3, "monthly_prepayment": "260", "move_in": "2019-09-01"},
    {"id": "t-novak",   "unit_id": "u-og-links",  "tenant_name": "Novak",   "occupants": 1, "monthly_prepayment": "180", "move_in": "2022-02-01"},
    {"id": "t-schmidt", "unit_id": "u-og-rechts", "tenant_name": "Schmidt", "occupants": 2, "monthly_prepayment": "140", "move_in": "2020-01-01", "move_out": "2025-06-30"},
    {"id": "t-okafor",  "unit_id": "u-og-rechts", "tenant_name": "Okafor",  "occupants": 2, "monthly_prepayment": "150", "move_in": "2025-08-01"}
  ],
  "expenses": [
    {"id": "demo-2024-grundsteuer", "category": "Grundsteuer", "amount": "1150", "billing_year": 2024},
    {"id": "demo-2025-grundsteuer", "category": "Grundsteuer", "amount": "1200", "billing_year": 2025},
    {"id": "demo-2025-versicherung", "category": "Sach- und Haftpflichtversicherung", "amount": "980.40", "billing_year": 2025},
    {"id": "demo-2025-kaltwasser", "category": "Kaltwasser", "amount": "1460", "billing_year": 2025},
    {"id": "demo-2025-muell", "category": "Straßenreinigung und Müll", "amount": "624", "billing_year": 2025},
    {"id": "demo-2025-garten", "category": "Gartenpflege", "amount": "480", "billing_year": 2025},
    {"id": "demo-2025-hausmeister", "category": "Hausmeister", "amount": "1234.56", "billing_year": 2025},
    {"id": "demo-2025-rauchmelder", "category": "Rauchmelderwartung", "amount": "45", "billing_year": 2025,
     "key": "direct", "target": "t-yilmaz", "proration": "none"}
  ],
  "meters": [
    {"id": "m-haus-strom", "number": "1ESY1160668", "medium": "electricity"},
    {"id": "m-wallbox",    "number": "WB-2231",     "medium": "electricity", "unit_id": "u-eg-rechts", "parent_id": "m-haus-strom"},
    {"id": "m-haus-wasser", "number": "W-77812",    "medium": "cold_water"}
  ],
  "readings": [
    {"meter_id": "m-haus-strom", "date": "2025-01-01", "value": "18250"},
    {"meter_id": "m-haus-strom", "date": "2025-12-31", "value": "21730"},
    {"meter_id": "m-wallbox",    "date": "2025-01-01", "value": "3120"},
    {"meter_id": "m-wallbox",    "date": "2025-12-31", "value": "4480"},
    {"meter_id": "m-haus-wasser", "date": "2025-01-01", "value": "9312.4"},
    {"meter_id": "m-haus-wasser", "date": "2025-12-31", "value": "9618.9"}
  ],
  "payments": [
    {"id": "demo-p-berger-01",  "tenancy_id": "t-berger",  "amount": "850",  "year": 2025, "month": 1, "paid_on": "2025-01-02"},
    {"id": "demo-p-berger-02",  "tenancy_id": "t-berger",  "amount": "850",  "year": 2025, "month": 2, "paid_on": "2025-02-03"},
    {"id": "demo-p-yilmaz-01",  "tenancy_id": "t-yilmaz",  "amount": "1080", "year": 2025, "month": 1, "paid_on": "2025-01-01"},
    {"id": "demo-p-yilmaz-02",  "tenancy_id": "t-yilmaz",  "amount": "700",  "year": 2025, "month": 2, "paid_on": "2025-02-05", "note": "Teilzahlung"},
    {"id": "demo-p-novak-01",   "tenancy_id": "t-novak",   "amount": "820",  "year": 2025, "month": 1, "paid_on": "2025-01-04"},
    {"id": "demo-p-schmidt-01", "tenancy_id": "t-schmidt", "amount": "590",  "year": 2025, "month": 1, "paid_on": "2025-01-01"}
  ]
}`

// DemoDatasetJSON returns the demo house as JSON, the same document an
// import would take.
func DemoDatasetJSON() string {
	return demoDatasetJSON
}

// DemoDataset returns the parsed demo house.
func DemoDataset() *Dataset {
	ds, err := ParseDataset([]byte(demoDatasetJSON))
	if err != nil {
		panic("factory: demo dataset is invalid: " + err.Error())
	}
	return ds
}
