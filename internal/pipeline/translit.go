package pipeline

import "strings"

// Speech providers return Uzbek text in Cyrillic script; the artifact is
// rendered in Latin script. Oʻ/gʻ use the modifier-letter turned comma
// (U+02BB), the standard Uzbek Latin apostrophe.
const uzbekApostrophe = "ʻ"

var cyrillicToLatin = map[rune]string{
	'А': "A", 'а': "a",
	'Б': "B", 'б': "b",
	'В': "V", 'в': "v",
	'Г': "G", 'г': "g",
	'Д': "D", 'д': "d",
	'Е': "E", 'е': "e",
	'Ё': "Yo", 'ё': "yo",
	'Ж': "J", 'ж': "j",
	'З': "Z", 'з': "z",
	'И': "I", 'и': "i",
	'Й': "Y", 'й': "y",
	'К': "K", 'к': "k",
	'Л': "L", 'л': "l",
	'М': "M", 'м': "m",
	'Н': "N", 'н': "n",
	'О': "O", 'о': "o",
	'П': "P", 'п': "p",
	'Р': "R", 'р': "r",
	'С': "S", 'с': "s",
	'Т': "T", 'т': "t",
	'У': "U", 'у': "u",
	'Ф': "F", 'ф': "f",
	'Х': "X", 'х': "x",
	'Ц': "Ts", 'ц': "ts",
	'Ч': "Ch", 'ч': "ch",
	'Ш': "Sh", 'ш': "sh",
	'Щ': "Sh", 'щ': "sh",
	'Ъ': "ʼ", 'ъ': "ʼ",
	'Ь': "", 'ь': "",
	'Э': "E", 'э': "e",
	'Ю': "Yu", 'ю': "yu",
	'Я': "Ya", 'я': "ya",
	'Ў': "O" + uzbekApostrophe, 'ў': "o" + uzbekApostrophe,
	'Қ': "Q", 'қ': "q",
	'Ғ': "G" + uzbekApostrophe, 'ғ': "g" + uzbekApostrophe,
	'Ҳ': "H", 'ҳ': "h",
}

// ToUzbekLatin transliterates Uzbek Cyrillic text to Latin script. Runes
// outside the mapping pass through unchanged.
func ToUzbekLatin(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if latin, ok := cyrillicToLatin[r]; ok {
			b.WriteString(latin)
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
