package privacy

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Lexicon holds the locale-specific phrase lists that drive the contextual
// name and address rules. The defaults target Pakistani queries; deployments
// can extend them from a YAML file.
type Lexicon struct {
	Cities          []string `yaml:"cities"`
	NameTriggers    []string `yaml:"name_triggers"`
	AddressKeywords []string `yaml:"address_keywords"`
}

// DefaultLexicon returns the built-in phrase lists.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Cities: []string{
			"Karachi", "Lahore", "Islamabad", "Rawalpindi", "Multan",
			"Faisalabad", "Peshawar", "Quetta", "Sialkot", "Gujranwala",
		},
		NameTriggers: []string{
			"my name is", "i am", "i'm", "called",
		},
		AddressKeywords: []string{
			"address", "residence", "located at", "living at",
			"house", "street", "road", "avenue",
		},
	}
}

// LoadLexicon reads a YAML lexicon file and appends its entries to the
// defaults. An empty path returns the defaults unchanged.
func LoadLexicon(path string) (Lexicon, error) {
	lex := DefaultLexicon()
	if path == "" {
		return lex, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return lex, eris.Wrapf(err, "privacy: read lexicon %s", path)
	}

	var extra Lexicon
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return lex, eris.Wrapf(err, "privacy: parse lexicon %s", path)
	}

	lex.Cities = append(lex.Cities, extra.Cities...)
	lex.NameTriggers = append(lex.NameTriggers, extra.NameTriggers...)
	lex.AddressKeywords = append(lex.AddressKeywords, extra.AddressKeywords...)
	return lex, nil
}
