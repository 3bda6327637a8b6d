package regions

// Region is a fixed geographic scoping code with localized display names.
type Region struct {
	Code   string `json:"code"`
	NameEN string `json:"name_en"`
	NameAR string `json:"name_ar"`
}

// DefaultCode is the region assigned to users created without an explicit set.
const DefaultCode = "headquarters"

// catalog is the fixed reference set. The codes are part of the external
// contract; clients and seed data depend on them verbatim.
var catalog = []Region{
	{Code: "headquarters", NameEN: "Headquarters", NameAR: "المقر الرئيسي"},
	{Code: "riyadh", NameEN: "Riyadh", NameAR: "الرياض"},
	{Code: "jeddah", NameEN: "Jeddah", NameAR: "جدة"},
	{Code: "makkah", NameEN: "Makkah", NameAR: "مكة المكرمة"},
	{Code: "madinah", NameEN: "Madinah", NameAR: "المدينة المنورة"},
	{Code: "dammam", NameEN: "Dammam", NameAR: "الدمام"},
	{Code: "khobar", NameEN: "Khobar", NameAR: "الخبر"},
	{Code: "dhahran", NameEN: "Dhahran", NameAR: "الظهران"},
	{Code: "jubail", NameEN: "Jubail", NameAR: "الجبيل"},
	{Code: "yanbu", NameEN: "Yanbu", NameAR: "ينبع"},
	{Code: "taif", NameEN: "Taif", NameAR: "الطائف"},
	{Code: "abha", NameEN: "Abha", NameAR: "أبها"},
	{Code: "khamis_mushait", NameEN: "Khamis Mushait", NameAR: "خميس مشيط"},
	{Code: "tabuk", NameEN: "Tabuk", NameAR: "تبوك"},
	{Code: "hail", NameEN: "Hail", NameAR: "حائل"},
	{Code: "jazan", NameEN: "Jazan", NameAR: "جازان"},
	{Code: "najran", NameEN: "Najran", NameAR: "نجران"},
	{Code: "alqassim", NameEN: "Al Qassim", NameAR: "القصيم"},
	{Code: "alahsa", NameEN: "Al Ahsa", NameAR: "الأحساء"},
}

var byCode = func() map[string]Region {
	m := make(map[string]Region, len(catalog))
	for _, r := range catalog {
		m[r.Code] = r
	}
	return m
}()

// All returns the full catalog in seed order.
func All() []Region {
	out := make([]Region, len(catalog))
	copy(out, catalog)
	return out
}

// Exists reports whether code is a member of the registry.
func Exists(code string) bool {
	_, ok := byCode[code]
	return ok
}

// ByCode looks up a region by code.
func ByCode(code string) (Region, bool) {
	r, ok := byCode[code]
	return r, ok
}
