// Package confusable folds visually confusable characters to their ASCII targets
// Pipeline order
// 1 UTF-8 repair drop invalid bytes
// 2 Unicode NFKC normalization (folds styled math letters, ligatures, enclosed forms)
// 3 Width fold fullwidth to ASCII
// 4 Remove zero-width and combining marks
// 5 Cross-script lookalike table (Cyrillic, Greek, Armenian and friends)
//
// The fold is many-to-one and idempotent: every mapped target is plain ASCII
// and ASCII is a fixed point of the whole pipeline
package confusable

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// pool of fresh transformer chains
var chainPool = sync.Pool{
	New: func() any {
		// order matters and mirrors the documented pipeline
		return transform.Chain(
			norm.NFKC,
			width.Fold,                         // map fullwidth forms to ASCII
			runes.Remove(runes.In(unicode.Mn)), // strip combining marks
			runes.Remove(runes.In(unicode.Cf)), // strip format chars ZWJ ZWNJ FEFF etc
		)
	},
}

// lookalikes maps cross-script confusables that NFKC leaves alone
// source scripts seen in the wild: Cyrillic, Greek, Armenian, Coptic, Cherokee
var lookalikes = map[rune]rune{
	// punctuation
	'。': '.',

	// lowercase targets
	'ɑ': 'a', 'α': 'a', 'а': 'a', 'ⱥ': 'a',
	'ƅ': 'b', 'ь': 'b', 'ᖯ': 'b',
	'ϲ': 'c', 'с': 'c', 'ᴄ': 'c', 'ⲥ': 'c',
	'ԁ': 'd', 'ɗ': 'd', 'ᑯ': 'd',
	'е': 'e', 'ҽ': 'e', 'ꬲ': 'e',
	'ſ': 'f', 'ẝ': 'f',
	'ƍ': 'g', 'ɡ': 'g', 'ց': 'g',
	'һ': 'h', 'հ': 'h', 'Ꮒ': 'h',
	'ı': 'i', 'ɩ': 'i', 'ι': 'i', 'і': 'i', 'ꭵ': 'i',
	'ϳ': 'j', 'ј': 'j',
	'ⱪ': 'k',
	'ɭ': 'l', 'ǀ': 'l', '∣': 'l', 'ⵏ': 'l',
	'м': 'm',
	'ո': 'n', 'ռ': 'n', 'п': 'n',
	'ο': 'o', 'σ': 'o', 'о': 'o', 'օ': 'o', 'ᴏ': 'o', 'ⲟ': 'o',
	'ρ': 'p', 'ϱ': 'p', 'р': 'p', 'ⲣ': 'p',
	'ԛ': 'q', 'գ': 'q', 'զ': 'q',
	'г': 'r', 'ᴦ': 'r', 'ⲅ': 'r', 'ꭇ': 'r',
	'ƽ': 's', 'ѕ': 's', 'ꜱ': 's', 'ꮪ': 's',
	'т': 't',
	'ʋ': 'u', 'υ': 'u', 'ս': 'u', 'ᴜ': 'u', 'ꞟ': 'u',
	'ѵ': 'v', 'ᴠ': 'v', '∨': 'v', 'ꮩ': 'v',
	'ɯ': 'w', 'ѡ': 'w', 'ԝ': 'w', 'ա': 'w', 'ᴡ': 'w', 'ꮃ': 'w',
	'х': 'x', '×': 'x', '⤫': 'x', '⨯': 'x',
	'ɣ': 'y', 'ʏ': 'y', 'γ': 'y', 'у': 'y', 'ү': 'y', 'ყ': 'y',
	'ᴢ': 'z', 'ꮓ': 'z',

	// uppercase targets
	'Α': 'A', 'А': 'A', 'ᗅ': 'A', 'ꓮ': 'A',
	'Β': 'B', 'В': 'B', 'ᴃ': 'B', 'ᗷ': 'B', 'ꓐ': 'B', 'Ᏼ': 'B',
	'Ϲ': 'C', 'С': 'C', 'Ⅽ': 'C', 'Ⲥ': 'C', 'ꓚ': 'C',
	'Ꭰ': 'D', 'ᗞ': 'D', 'ᗪ': 'D', 'Ⅾ': 'D', 'ꓓ': 'D',
	'Ε': 'E', 'Е': 'E', 'Ꭼ': 'E', 'ⴹ': 'E', 'ꓰ': 'E',
	'Ϝ': 'F', 'ᖴ': 'F', 'ꓝ': 'F',
	'Ԍ': 'G', 'Ꮐ': 'G', 'Ᏻ': 'G', 'ꓖ': 'G',
	'Η': 'H', 'Н': 'H', 'Ꮋ': 'H', 'ᕼ': 'H', 'Ⲏ': 'H', 'ꓧ': 'H',
	'Ɩ': 'I', 'Ι': 'I', 'І': 'I', 'Ӏ': 'I',
	'Ϳ': 'J', 'Ј': 'J', 'Ꭻ': 'J', 'ᒍ': 'J', 'ꓙ': 'J', 'Ʝ': 'J',
	'Κ': 'K', 'К': 'K', 'Ꮶ': 'K', 'ᛕ': 'K', 'Ⲕ': 'K', 'ꓗ': 'K',
	'Ꮮ': 'L', 'ᒪ': 'L', 'Ⅼ': 'L', 'Ⳑ': 'L', 'ꓡ': 'L',
	'Μ': 'M', 'Ϻ': 'M', 'М': 'M', 'Ꮇ': 'M', 'ᗰ': 'M', 'ᛖ': 'M', 'Ⅿ': 'M', 'Ⲙ': 'M', 'ꓟ': 'M',
	'Ν': 'N', 'Ⲛ': 'N', 'ꓠ': 'N',
	'Ο': 'O', 'О': 'O', 'Ꮎ': 'O', 'ⵔ': 'O', '〇': 'O', 'ꓳ': 'O',
	'Ρ': 'P', 'Р': 'P', 'Ꮲ': 'P', 'ᑭ': 'P', 'Ⲣ': 'P', 'ꓑ': 'P',
	'ⵕ': 'Q',
	'Ʀ': 'R', 'Ꭱ': 'R', 'Ꮢ': 'R', 'ᖇ': 'R', 'ꓣ': 'R',
	'Ѕ': 'S', 'Տ': 'S', 'Ꮥ': 'S', 'Ꮪ': 'S', 'ꓢ': 'S',
	'Τ': 'T', 'Т': 'T', 'Ꭲ': 'T', '⊤': 'T', '⟙': 'T', 'Ⲧ': 'T', 'ꓔ': 'T',
	'Ս': 'U', 'ᑌ': 'U', '∪': 'U', 'ꓴ': 'U',
	'Ꮩ': 'V', 'ⴸ': 'V', 'ꓦ': 'V', 'ᐯ': 'V',
	'Ꮃ': 'W', 'ꓪ': 'W',
	'Χ': 'X', 'Х': 'X', '᙭': 'X', 'ᚷ': 'X', '╳': 'X', 'Ⲭ': 'X', 'ⵝ': 'X', 'ꓫ': 'X',
	'Υ': 'Y', 'ϒ': 'Y', 'У': 'Y', 'Ү': 'Y', 'Ꭹ': 'Y', 'Ꮍ': 'Y', 'Ⲩ': 'Y', 'ꓬ': 'Y',
	'Ζ': 'Z', 'Ꮓ': 'Z', 'ꓜ': 'Z',
}

// Fold returns s with confusable characters replaced by their ASCII targets
func Fold(s string) string {
	if s == "" {
		return ""
	}

	// 1 repair UTF-8 drop invalid bytes
	s = strings.ToValidUTF8(s, "")

	// 2-4 transform via pooled chain then reset and return it
	tr := chainPool.Get().(transform.Transformer)
	ns, _, _ := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)

	// 5 table fold for cross-script lookalikes
	return tableFold(ns)
}

func tableFold(s string) string {
	// fast path: nothing to map
	mapped := false
	for _, r := range s {
		if _, ok := lookalikes[r]; ok {
			mapped = true
			break
		}
	}
	if !mapped {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if t, ok := lookalikes[r]; ok {
			b.WriteRune(t)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
