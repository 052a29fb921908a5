// Package nomenclature rewrites vendor-supplied scientific names into
// canonical botanical form ("Genus species 'Cultivar'" or
// "Genus Brand Series 'Cultivar'").
package nomenclature

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/gardenscape/plant-import/internal/model"
)

// HybridMarker is the multiplication sign used for hybrid names.
const HybridMarker = "×"

var (
	multiSpaceRe = regexp.MustCompile(`\s{2,}`)
	hybridRe     = regexp.MustCompile(`(?i)\s+x\s+`)
	quotedRe     = regexp.MustCompile(`'([^']+)'|"([^"]+)"`)

	quoteReplacer = strings.NewReplacer("‘", "'", "’", "'", "“", `"`, "”", `"`)
)

// Normalizer applies the nomenclature rules to plant candidates. It holds no
// mutable state and is safe for concurrent use.
type Normalizer struct {
	rules *Rules
}

// New creates a Normalizer backed by rules. A nil rules table selects the
// embedded default.
func New(rules *Rules) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// RulesVersion reports the version of the rules table in use.
func (n *Normalizer) RulesVersion() int {
	return n.rules.Version
}

// NormalizeName normalizes a bare scientific name.
func (n *Normalizer) NormalizeName(name string) string {
	c := model.Candidate{ScientificName: name}
	n.Normalize(&c)
	return c.ScientificName
}

// Normalize rewrites the naming fields of c in place. Applying it to an
// already normalized candidate leaves the candidate unchanged.
func (n *Normalizer) Normalize(c *model.Candidate) {
	c.ScientificName = clean(c.ScientificName)
	c.Genus = clean(c.Genus)
	c.Species = clean(c.Species)
	c.Series = clean(c.Series)
	c.Cultivar = strings.TrimSpace(strings.Trim(clean(c.Cultivar), `'"`))

	if needsRecase(c.ScientificName) {
		c.ScientificName = n.recase(c.ScientificName, c)
	}

	c.ScientificName = hybridRe.ReplaceAllString(c.ScientificName, " "+HybridMarker+" ")

	if c.Genus == "" {
		c.Genus = inferGenus(c.ScientificName)
	}

	n.detectCultivar(c)
	n.correctSpecies(c)

	if c.Species == "" {
		c.Species = positionalSpecies(c.ScientificName)
	}

	n.fixCultivarTypo(c)
	finalCasing(c)
}

// recase rewrites shouting names: genus capitalized, epithets lowercased and
// quoted cultivar words title-cased, or the series form when a brand follows
// the genus.
func (n *Normalizer) recase(name string, c *model.Candidate) string {
	tokens := strings.Fields(name)
	genus := capitalize(tokens[0])
	rest := tokens[1:]

	if len(rest) > 0 {
		if brand, ok := n.rules.brand(rest[0]); ok {
			words := rest[1:]
			if len(words) > 0 && strings.EqualFold(strings.Trim(words[0], `'"`), "series") {
				words = words[1:]
			}
			if c.Series == "" {
				c.Series = brand
			}
			if len(words) == 0 {
				return genus + " " + brand
			}
			cultivar := titleCase(strings.Trim(strings.Join(words, " "), `'"`))
			if c.Cultivar == "" {
				c.Cultivar = cultivar
			}
			return buildName(genus, "", brand, cultivar)
		}
	}

	out := []string{genus}
	inQuote := false
	for _, tok := range rest {
		opens := strings.HasPrefix(tok, "'") || strings.HasPrefix(tok, `"`)
		if opens || inQuote {
			out = append(out, titleCase(tok))
		} else {
			out = append(out, strings.ToLower(tok))
		}
		closes := len(tok) > 1 && (strings.HasSuffix(tok, "'") || strings.HasSuffix(tok, `"`))
		switch {
		case opens && !closes:
			inQuote = true
		case inQuote && closes:
			inQuote = false
		}
	}
	return strings.Join(out, " ")
}

// detectCultivar finds a quoted cultivar, an implicit run of capitalized
// words, or a lowercase remainder matching a known cultivar.
func (n *Normalizer) detectCultivar(c *model.Candidate) {
	name := c.ScientificName
	if loc := quotedRe.FindStringSubmatchIndex(name); loc != nil {
		quoted := ""
		if loc[2] >= 0 {
			quoted = name[loc[2]:loc[3]]
		} else {
			quoted = name[loc[4]:loc[5]]
		}
		if c.Cultivar == "" {
			c.Cultivar = strings.TrimSpace(quoted)
		}
		prefix := strings.Fields(name[:loc[0]])
		if k := len(prefix); k >= 2 && strings.EqualFold(prefix[k-1], "series") && c.Series == "" {
			if brand, ok := n.rules.brand(prefix[k-2]); ok {
				c.Series = brand
			}
		}
		return
	}

	tokens := strings.Fields(name)
	if len(tokens) < 2 || !strings.EqualFold(tokens[0], c.Genus) {
		if c.Cultivar != "" && c.Genus != "" && len(tokens) > 0 {
			c.ScientificName = buildName(c.Genus, firstNonEmpty(c.Species, epithetOf(tokens)), c.Series, c.Cultivar)
		}
		return
	}

	i := 1
	for i < len(tokens) && isEpithet(tokens[i]) {
		i++
	}
	epithets := strings.Join(tokens[1:i], " ")
	run := capitalizedRun(tokens[i:])

	if len(run) >= 2 && i+len(run) == len(tokens) {
		series, cultivar := "", strings.Join(run, " ")
		if brand, ok := n.rules.brand(run[0]); ok {
			words := run[1:]
			if len(words) > 0 && strings.EqualFold(words[0], "series") {
				words = words[1:]
			}
			series, cultivar = brand, strings.Join(words, " ")
		}
		if c.Series == "" {
			c.Series = series
		}
		if c.Cultivar == "" {
			c.Cultivar = cultivar
		}
		if c.Species == "" {
			c.Species = epithets
		}
		if c.Cultivar != "" {
			c.ScientificName = buildName(c.Genus, c.Species, c.Series, c.Cultivar)
		}
		return
	}

	if c.Cultivar == "" {
		for k := 1; k < len(tokens); k++ {
			known, ok := n.rules.knownCultivar(c.Genus, strings.Join(tokens[k:], " "))
			if !ok {
				continue
			}
			c.Cultivar = known
			if c.Species == "" && k > 1 {
				c.Species = strings.Join(tokens[1:k], " ")
			}
			c.ScientificName = buildName(c.Genus, c.Species, c.Series, c.Cultivar)
			return
		}
		return
	}

	c.ScientificName = buildName(c.Genus, firstNonEmpty(c.Species, epithets), c.Series, c.Cultivar)
}

// correctSpecies fills a missing species epithet from the correction table.
func (n *Normalizer) correctSpecies(c *model.Candidate) {
	if c.Cultivar == "" || c.Species != "" {
		return
	}
	sc, ok := n.rules.species(c.Genus, c.Cultivar)
	if !ok {
		sc, ok = n.rules.species(c.Genus, c.CommonName)
	}
	if !ok {
		return
	}
	c.Species = sc.Species
	if strings.EqualFold(n.rules.fixTypo(c.Cultivar), sc.Cultivar) {
		c.Cultivar = sc.Cultivar
	}
	c.ScientificName = buildName(c.Genus, c.Species, c.Series, c.Cultivar)
}

func (n *Normalizer) fixCultivarTypo(c *model.Candidate) {
	if c.Cultivar == "" {
		return
	}
	fixed := n.rules.fixTypo(c.Cultivar)
	if fixed == c.Cultivar {
		return
	}
	old := c.Cultivar
	c.Cultivar = fixed
	if strings.Contains(c.ScientificName, "'"+old+"'") {
		c.ScientificName = strings.Replace(c.ScientificName, "'"+old+"'", "'"+fixed+"'", 1)
		return
	}
	c.ScientificName = buildName(c.Genus, c.Species, c.Series, c.Cultivar)
}

func finalCasing(c *model.Candidate) {
	c.Genus = capitalize(c.Genus)
	c.Species = strings.ToLower(c.Species)

	if c.ScientificName == "" {
		if c.Genus != "" {
			c.ScientificName = buildName(c.Genus, c.Species, c.Series, c.Cultivar)
		}
		return
	}

	tokens := strings.SplitN(c.ScientificName, " ", 2)
	if c.Genus != "" && strings.EqualFold(tokens[0], c.Genus) && tokens[0] != c.Genus {
		tokens[0] = c.Genus
		c.ScientificName = strings.Join(tokens, " ")
	}
}

// Binomial returns the genus and species epithet of name, dropping series
// and cultivar parts: "Nepeta × faassenii 'Six Hills Giant'" gives
// "Nepeta × faassenii".
func Binomial(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) == 0 {
		return ""
	}
	end := 1
	for end < len(tokens) && isEpithet(tokens[end]) {
		end++
	}
	if tokens[end-1] == HybridMarker {
		end--
	}
	return strings.Join(tokens[:end], " ")
}

// buildName renders the canonical name from its parts.
func buildName(genus, species, series, cultivar string) string {
	parts := []string{genus}
	if species != "" {
		parts = append(parts, species)
	}
	if series != "" {
		parts = append(parts, series, "Series")
	}
	if cultivar != "" {
		parts = append(parts, "'"+cultivar+"'")
	}
	return strings.Join(parts, " ")
}

// clean applies NFC normalization, straightens curly quotes and collapses
// whitespace.
func clean(s string) string {
	s = norm.NFC.String(s)
	s = quoteReplacer.Replace(s)
	s = multiSpaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
	return s
}

// needsRecase reports whether name is all caps or contains an all-caps word
// longer than three letters.
func needsRecase(name string) bool {
	if name == "" {
		return false
	}
	if strings.ToUpper(name) == name && strings.ToLower(name) != name {
		return true
	}
	for _, tok := range strings.Fields(name) {
		letters := 0
		upper := true
		for _, r := range tok {
			if !unicode.IsLetter(r) {
				continue
			}
			letters++
			if !unicode.IsUpper(r) {
				upper = false
				break
			}
		}
		if upper && letters > 3 {
			return true
		}
	}
	return false
}

func inferGenus(name string) string {
	for _, tok := range strings.Fields(name) {
		if strings.HasPrefix(tok, "'") || strings.HasPrefix(tok, `"`) {
			return ""
		}
		if tok == HybridMarker {
			continue
		}
		r, _ := utf8.DecodeRuneInString(tok)
		if unicode.IsUpper(r) {
			return capitalize(strings.TrimFunc(tok, func(r rune) bool { return !unicode.IsLetter(r) }))
		}
	}
	return ""
}

// positionalSpecies reads the epithet from the second word of name.
func positionalSpecies(name string) string {
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return ""
	}
	if tokens[1] == HybridMarker {
		if len(tokens) >= 3 && isLowerWord(tokens[2]) {
			return HybridMarker + " " + tokens[2]
		}
		return ""
	}
	if isLowerWord(tokens[1]) {
		return tokens[1]
	}
	return ""
}

func epithetOf(tokens []string) string {
	if len(tokens) < 2 {
		return ""
	}
	return positionalSpecies(strings.Join(tokens, " "))
}

// isEpithet reports whether tok can be part of a species epithet.
func isEpithet(tok string) bool {
	return tok == HybridMarker || isLowerWord(tok)
}

// isLowerWord reports whether tok is an unquoted lowercase word such as
// "decapetalus" or "novae-angliae". Abbreviations like "var." are rejected.
func isLowerWord(tok string) bool {
	if tok == "" || strings.HasSuffix(tok, ".") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(tok)
	if !unicode.IsLower(r) {
		return false
	}
	for _, r := range tok {
		if unicode.IsLetter(r) && !unicode.IsLower(r) {
			return false
		}
		if !unicode.IsLetter(r) && r != '-' {
			return false
		}
	}
	return true
}

// capitalizedRun returns the leading tokens that start with an uppercase letter.
func capitalizedRun(tokens []string) []string {
	for i, tok := range tokens {
		r, _ := utf8.DecodeRuneInString(tok)
		if !unicode.IsUpper(r) {
			return tokens[:i]
		}
	}
	return tokens
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// titleCase title-cases s, leaving surrounding quotes in place. cases.Caser
// is stateful, so one is built per call.
func titleCase(s string) string {
	core := strings.Trim(s, `'"`)
	if core == "" {
		return s
	}
	start := strings.Index(s, core)
	titled := cases.Title(language.English).String(strings.ToLower(core))
	return s[:start] + titled + s[start+len(core):]
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
