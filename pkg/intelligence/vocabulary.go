package intelligence

import "strings"

// businessVocabulary maps a canonical business_type value to the surface
// forms (including common misspellings) that identify it. Adapted from the
// fuzzy business-vocabulary table the original Python intelligence layer
// used, trimmed of the generic catch-all entries ("negocio", "empresa",
// "comercio", "local") the spec requires rejecting outright rather than
// normalizing into a type.
var businessVocabulary = map[string][]string{
	"restaurante": {"restaurante", "restaurant", "resto", "restauran", "restorante"},
	"tienda":      {"tienda", "store", "shop", "tiendita"},
	"salon":       {"salon", "salón", "saloon", "peluqueria", "peluquería"},
	"barberia":    {"barbería", "barberia", "barber", "barbero"},
	"clinica":     {"clínica", "clinica", "clinic", "consultorio", "consulta"},
	"agencia":     {"agencia", "agency", "oficina"},
	"hotel":       {"hotel", "motel", "hostal", "hospedaje"},
	"gym":         {"gym", "gimnasio", "fitness", "crossfit"},
	"spa":         {"spa", "masaje", "masajes"},
	"cafe":        {"café", "cafe", "cafetería", "cafeteria", "coffee"},
	"pizzeria":    {"pizzería", "pizzeria", "pizza"},
	"panaderia":   {"panadería", "panaderia", "bakery", "pan"},
	"farmacia":    {"farmacia", "pharmacy", "drogueria"},
	"bar":         {"bar", "cantina", "cerveceria", "cervecería"},
	"taller":      {"taller", "mecanico", "mecánico", "garage"},
	"estetica":    {"estética", "estetica", "belleza", "beauty"},
	"dentista":    {"dentista", "dental", "odontologia", "odontología"},
}

// genericBusinessTerms are words customers use to describe that they have a
// business without saying what kind — never an accepted business_type value
// on their own.
var genericBusinessTerms = map[string]bool{
	"negocio":  true,
	"empresa":  true,
	"local":    true,
	"comercio": true,
}

// businessWordIndex flattens businessVocabulary into surface-form -> type,
// and a plain list of surface forms for fuzzy matching.
var businessWordIndex, businessWordList = buildBusinessIndex()

func buildBusinessIndex() (map[string]string, []string) {
	index := make(map[string]string)
	var words []string
	for businessType, variants := range businessVocabulary {
		for _, v := range variants {
			index[v] = businessType
			words = append(words, v)
		}
	}
	return index, words
}

// RegisterVocabulary merges operator-supplied surface forms into the
// built-in business vocabulary, keyed by canonical business type. It is
// meant to be called once at process startup, before any Extract call —
// it is not safe to call concurrently with extraction.
func RegisterVocabulary(extra map[string][]string) {
	for businessType, variants := range extra {
		businessVocabulary[businessType] = append(businessVocabulary[businessType], variants...)
	}
	businessWordIndex, businessWordList = buildBusinessIndex()
}

// skipWords are common short words fuzzy matching must never consider as
// candidate business terms, since their edit distance to legitimate
// vocabulary entries is often deceptively small.
var skipWords = map[string]bool{
	"tengo": true, "quiero": true, "necesito": true, "para": true,
	"estoy": true, "hola": true, "con": true, "una": true, "uno": true,
	"como": true, "pero": true,
}

func normalizeWord(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
