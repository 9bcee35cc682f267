package token

var keywords = map[string]Kind{
	"class":  KwClass,
	"module": KwModule,
	"def":    KwDef,
	"end":    KwEnd,
	"if":     KwIf,
	"unless": KwUnless,
	"while":  KwWhile,
	"until":  KwUntil,
	"for":    KwFor,
	"case":   KwCase,
	"begin":  KwBegin,
	"do":     KwDo,
	"nil":    KwNil,
	"true":   KwTrue,
	"false":  KwFalse,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Ключевые слова регистрозависимые — только lowercase версии распознаются.
func LookupKeyword(word string) (Kind, bool) {
	k, ok := keywords[word]
	return k, ok
}
