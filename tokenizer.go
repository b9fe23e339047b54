package lfas

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// FederativeUnits is the closed set of Brazilian state codes the tokenizer
// treats as distinctive tokens.
var FederativeUnits = []string{"PA", "MA", "PI", "AL", "RS", "GO"}

// HighwayPrefixes are recognized abbreviations preceding a highway number
// ("BR-316", "km 8") that form a distinctive two-token n-gram.
var HighwayPrefixes = []string{"km", "br"}

// CustomStopwords are Portuguese function words the domain tokenizer always
// drops, regardless of the bundled language stop-word list.
var CustomStopwords = []string{
	"de", "da", "do", "das", "dos", "em", "na", "no", "nas", "nos", "as", "os", "um", "uma", "uns",
	"umas", "pelo", "pela", "por", "para", "com", "sem", "sobre", "entre", "ate", "desde",
}

// PortugueseStopwords is a bundled, NLTK-derived Portuguese stop-word list
// (distinct from CustomStopwords, which targets address-specific noise).
var PortugueseStopwords = []string{
	"a", "à", "ao", "aos", "aquela", "aquelas", "aquele", "aqueles", "aquilo", "as", "até",
	"com", "como", "da", "das", "de", "dela", "delas", "dele", "deles", "depois", "do", "dos",
	"e", "é", "ela", "elas", "ele", "eles", "em", "entre", "era", "eram", "essa", "essas", "esse",
	"esses", "esta", "está", "estamos", "estão", "estas", "estava", "estavam", "este", "esteja",
	"estou", "eu", "foi", "fomos", "for", "foram", "fosse", "fossem", "fui", "há", "isso", "isto",
	"já", "lhe", "lhes", "mais", "mas", "me", "mesmo", "meu", "meus", "minha", "minhas", "muito",
	"na", "não", "nem", "nos", "nós", "nossa", "nossas", "nosso", "nossos", "num", "numa", "o",
	"os", "ou", "para", "pela", "pelas", "pelo", "pelos", "por", "qual", "quando", "que", "quem",
	"se", "seja", "sejam", "sem", "será", "serão", "seu", "seus", "só", "somos", "sua", "suas",
	"também", "te", "tem", "têm", "temos", "tenho", "teu", "teus", "ti", "tu", "tua", "tuas", "um",
	"uma", "você", "vocês", "vos",
}

// AddressTypeWords is the (large, closed) vocabulary of Brazilian address
// prefixes — street types and their common abbreviations — that seed the
// "<address-type> <number>" distinctive n-gram rule.
var AddressTypeWords = []string{
	"travessa", "rua", "beco", "avenida", "ramal", "rodovia", "passagem", "alameda", "vila",
	"estrada", "igarape", "aglomerado", "folha", "ponte", "ruela", "vicinal", "travessao",
	"assentamento", "quadra", "rio", "comunidade", "acesso", "praca", "condominio", "vilarejo",
	"via", "residencial", "aldeia", "sitio", "caminho", "furo", "beirada", "chacara", "grota",
	"passarela", "loteamento", "fazenda", "planalto", "linha", "divisa", "ilha", "quilometro",
	"povoado", "agrovila", "conjunto", "outros", "propriedade", "colonia", "lago", "canal",
	"trilha", "costa", "perimetro", "regiao", "retiro", "marginal", "entrada", "trevo", "quilombo",
	"afluente", "eixo", "praia", "baixa", "margens", "viela", "invasao", "porto", "aeroporto",
	"baia", "contorno", "terra", "baixadao", "margem", "nucleo", "paralela", "descida", "arraial",
	"alto", "setor", "beira", "area", "buraco", "corrego", "bairro", "varzea", "desvio",
	"cabeceira", "campo", "prolongamento", "parque", "vale", "transversal", "trecho", "areal",
	"barra", "estancia", "corredor", "lagoa", "jardim", "gleba", "cruzamento", "perimetral",
	"reta", "boulevard", "arteria", "lugarejo", "travessia", "sede", "variante", "centro",
	"colina", "maloca", "atalho", "rancho", "volta", "enseada", "3a travessa da rua", "extensao",
	"lote", "limite", "1a travessa da rua", "terreno", "zona", "largo", "vereda", "esquina",
	"circular", "rampa", "ladeira", "2a travessa da rua", "5a travessa da rua",
	"4a travessa da rua", "ponta", "garimpo", "riacho", "granja", "balneario", "acampamento",
	"serra", "bloco", "baixada", "estadio", "rotatoria", "alagado", "trilho", "seringal", "cerca",
	"baixo", "orla", "saida", "tapera", "continuacao", "seta", "adro", "barragem",
	"cachoeirinha", "fonte", "ribeirao", "estacionamento", "mata", "haras", "terrenos", "unidade",
	"2a travessa", "retorno", "riachao", "baixao", "viaduto", "acude", "oca", "trilhos", "galeria",
	"projetada", "lado", "parada", "final", "escadinha", "canteiro", "marina", "cohab",
	"ferrovia", "patio", "vertente", "projeto", "fundos", "faixa", "encosta", "entreposto",
	"terminal", "ligacao", "calcada", "gameleira", "entroncamento", "morro", "esplanada", "vala",
	"aleia", "posto", "capoeira", "subida", "feira", "distrito", "pedras", "palafita", "bosque",
	"cais", "1a travessa da avenida", "boqueirao", "edificio", "capao",
	"et", "so", "lt", "pq", "bl", "ps", "ad", "al", "qd", "pr", "gr", "av", "tv", "jd", "ac", "as",
	"ia", "fa", "st", "ld", "pv", "vl", "cd", "pa", "bv", "lg", "pj", "dt", "r", "fl", "cl", "pc",
	"il", "bc", "fe", "pt", "mr", "rm", "rd", "vc", "cj",
}

var (
	reExtract      = regexp.MustCompile(`(?i)\d{5}-\d{3}|S/N|\d+|[a-zA-Z]+`)
	reCEP          = regexp.MustCompile(`(?i)\d{5}-?\d{3}`)
	reNumber       = regexp.MustCompile(`^\d+$`)
	reStreetNumber = regexp.MustCompile(`^\d+$`)
	reShortNumber  = regexp.MustCompile(`\d{1,3}`)

	customStopwordSet   = toSet(CustomStopwords)
	languageStopwordSet = toSet(PortugueseStopwords)
	addressTypeSet      = toSet(AddressTypeWords)
	federativeUnitSet   = toSet(lowercaseAll(FederativeUnits))
	highwayPrefixSet    = toSet(HighwayPrefixes)
)

// lowercaseAll lowercases every element, used for FederativeUnits since the
// exported list reads naturally in upper case but tokens are matched
// lower case after normalizeToNFD.
func lowercaseAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(w)
	}
	return out
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// TokenSet holds the two token views produced by the domain tokenizer: a
// small, highly selective Distinctive set used to seed candidate retrieval,
// and a larger All set used during BM25F scoring.
type TokenSet struct {
	Distinctive map[string]struct{}
	All         map[string]struct{}
}

// normalizeToNFD lowercases text and strips Unicode combining marks after
// NFD decomposition, giving deterministic accent-insensitive matching
// without depending on any particular locale.
func normalizeToNFD(text string) string {
	decomposed := norm.NFD.String(text)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if isCombiningMark(r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// isCombiningMark reports whether r is a Unicode combining mark (general
// category Mn/Mc/Me).
func isCombiningMark(r rune) bool {
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r) || unicode.Is(unicode.Me, r)
}

// extractWeakTokens slices each token's raw bytes into non-overlapping
// stride-n windows (n=3 in practice), keeping only whole windows. These
// "weak" tokens widen recall during scoring without growing the candidate
// set the way a full token would.
func extractWeakTokens(tokens map[string]struct{}, n int) map[string]struct{} {
	weak := make(map[string]struct{})
	for token := range tokens {
		b := []byte(token)
		for i := 0; i+n <= len(b); i += n {
			weak[string(b[i:i+n])] = struct{}{}
		}
	}
	return weak
}

// TokenizeStructured runs the full domain pipeline: NFD-normalize,
// extract candidate tokens by regex, drop stop-words, inject the
// unaccented state name when applicable, then classify tokens into the
// distinctive and all sets.
func TokenizeStructured(text string) TokenSet {
	normalized := normalizeToNFD(text)

	matches := reExtract.FindAllString(normalized, -1)
	tokensList := make([]string, 0, len(matches))
	for _, m := range matches {
		t := strings.ToLower(m)
		if _, stop := customStopwordSet[t]; stop {
			continue
		}
		if _, stop := languageStopwordSet[t]; stop {
			continue
		}
		tokensList = append(tokensList, t)
	}

	if strings.Contains(strings.ToLower(text), "pará") {
		tokensList = append(tokensList, "para")
	}

	distinctive := make(map[string]struct{})
	all := make(map[string]struct{})

	for i := 0; i+1 < len(tokensList); i++ {
		first, second := tokensList[i], tokensList[i+1]

		if _, ok := addressTypeSet[first]; ok && reStreetNumber.MatchString(second) {
			distinctive[first+" "+second] = struct{}{}
		}
		if _, ok := highwayPrefixSet[first]; ok && reShortNumber.MatchString(second) {
			distinctive[first+" "+second] = struct{}{}
		}
	}

	for _, t := range tokensList {
		if reCEP.MatchString(t) {
			distinctive[t] = struct{}{}
		}
		if _, ok := federativeUnitSet[t]; ok {
			distinctive[t] = struct{}{}
		}
		// Shorter numerics (floor and apartment numbers) are too common
		// to narrow candidates.
		if reNumber.MatchString(t) && len(t) >= 3 {
			distinctive[t] = struct{}{}
		}
		all[t] = struct{}{}
	}

	for token := range extractWeakTokens(all, 3) {
		all[token] = struct{}{}
	}
	for token := range distinctive {
		all[token] = struct{}{}
	}

	return TokenSet{Distinctive: distinctive, All: all}
}

// Tokenize returns the All token set from TokenizeStructured — the
// convenience entry point used wherever only scoring tokens are needed.
func Tokenize(text string) map[string]struct{} {
	return TokenizeStructured(text).All
}
