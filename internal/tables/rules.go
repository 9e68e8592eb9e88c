package tables

import (
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// MinDescription is the minimum length, in characters, of a project description.
const MinDescription = 20

// Bounds of the max documents setting.
const (
	MinDocuments = 5
	MaxDocuments = 50
)

var relevanceKeywords = []string{
	"construção", "instalação", "operação", "atividade", "empreendimento",
	"projeto", "obra", "desenvolvimento", "implantação", "exploração",
	"produção", "processamento", "tratamento", "disposição", "armazenamento",
}

var locationCue = regexp2.MustCompile(`município|cidade|estado|localizad[oa]|situad[oa]`, regexp2.IgnoreCase)

// Spam rules. Letters of any script are fine; runs of a repeated pair or a
// repeated character and unexpected symbols are not.
var spamPatterns = []*regexp2.Regexp{
	regexp2.MustCompile(`(..)\1{4,}`, regexp2.None),
	regexp2.MustCompile(`[^\p{L}\p{N}_\s.,!?;:()\-]`, regexp2.None),
	regexp2.MustCompile(`(.)\1{10,}`, regexp2.None),
}

const placeName = `(\p{Lu}\p{Ll}+(?:\s+(?:d[aeo]s?\s+)?\p{Lu}\p{Ll}+)*)`

var municipalityPatterns = []*regexp2.Regexp{
	regexp2.MustCompile(`(?i:município|cidade|localizad[oa]|situad[oa])\s+(?i:(?:de|em|no|na)\s+)?`+placeName, regexp2.None),
	regexp2.MustCompile(`(?i:\b(?:em|no|na))\s+`+placeName+`\s*(?:,|-|/)?\s*(?:(?i:estado)|[A-Z]{2}\b)`, regexp2.None),
	regexp2.MustCompile(placeName+`\s*(?:,|-|/)\s*[A-Z]{2}\b`, regexp2.None),
}

// Activities maps an activity category to the keywords that reveal it, in
// matching order.
var Activities = newActivities()

func newActivities() *orderedmap.OrderedMap[string, []string] {
	m := orderedmap.New[string, []string]()
	m.Set("mineracao", []string{"mineração", "minério", "extração", "lavra", "garimpo", "carvão", "ferro", "ouro"})
	m.Set("energia", []string{"energia", "elétrica", "hidrelétrica", "eólica", "solar", "termelétrica", "usina", "geração"})
	m.Set("industria", []string{"indústria", "industrial", "fábrica", "manufatura", "produção", "processamento"})
	m.Set("agropecuaria", []string{"agropecuária", "agricultura", "pecuária", "criação", "cultivo", "plantação", "fazenda"})
	m.Set("infraestrutura", []string{"rodovia", "estrada", "ponte", "túnel", "ferrovia", "porto", "aeroporto", "infraestrutura"})
	m.Set("turismo", []string{"turismo", "hotel", "pousada", "resort", "ecoturismo", "turístico"})
	m.Set("residencial", []string{"residencial", "habitação", "condomínio", "loteamento", "casa", "apartamento"})
	m.Set("comercial", []string{"comercial", "shopping", "loja", "comércio", "mercado", "supermercado"})
	return m
}

var activityLabels = map[string]string{
	"mineracao":      "Mineração",
	"energia":        "Energia",
	"industria":      "Indústria",
	"agropecuaria":   "Agropecuária",
	"infraestrutura": "Infraestrutura",
	"turismo":        "Turismo",
	"residencial":    "Residencial",
	"comercial":      "Comercial",
	"outros":         "Outros",
}

// ActivityLabel returns the display label of an activity category.
func ActivityLabel(activity string) string {
	if l, ok := activityLabels[activity]; ok {
		return l
	}
	return activity
}

var columnNames = map[string]string{
	"lei":            "Lei",
	"artigo":         "Artigo",
	"descricao":      "Descrição",
	"esfera":         "Esfera",
	"tipo":           "Tipo",
	"relevancia":     "Relevância",
	"aplicabilidade": "Aplicabilidade",
	"observacoes":    "Observações",
}

// ColumnName returns the header shown for a backend column.
func ColumnName(col string) string {
	if n, ok := columnNames[col]; ok {
		return n
	}
	r, size := utf8.DecodeRuneInString(col)
	if r == utf8.RuneError {
		return col
	}
	return string(unicode.ToUpper(r)) + col[size:]
}

func match(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	if err != nil {
		log.Printf("tables: match %s: %v", re, err)
		return false
	}
	return ok
}

// IsRelevant reports whether a project description is long enough and
// mentions an activity or a location.
func IsRelevant(text string) bool {
	if utf8.RuneCountInString(text) < MinDescription {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return match(locationCue, lower)
}

// IsSpam reports whether text trips one of the spam rules.
func IsSpam(text string) bool {
	for _, re := range spamPatterns {
		if match(re, text) {
			return true
		}
	}
	return false
}

// ExtractMunicipality finds the municipality named in a description, or "".
func ExtractMunicipality(text string) string {
	for _, re := range municipalityPatterns {
		m, err := re.FindStringMatch(text)
		if err != nil {
			log.Printf("tables: extract municipality: %v", err)
			continue
		}
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m.GroupByNumber(1).String())
		if utf8.RuneCountInString(name) > 2 {
			return CapitalizeWords(name)
		}
	}
	return ""
}

// ExtractActivity returns the first activity category whose keywords appear
// in text, or "".
func ExtractActivity(text string) string {
	lower := strings.ToLower(text)
	for pair := Activities.Oldest(); pair != nil; pair = pair.Next() {
		for _, kw := range pair.Value {
			if strings.Contains(lower, kw) {
				return pair.Key
			}
		}
	}
	return ""
}

// CapitalizeWords upper-cases the first letter of every word and lower-cases
// the rest.
func CapitalizeWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}

// ClampDocuments keeps n within MinDocuments..MaxDocuments.
func ClampDocuments(n int) int {
	if n < MinDocuments {
		return MinDocuments
	}
	if n > MaxDocuments {
		return MaxDocuments
	}
	return n
}
