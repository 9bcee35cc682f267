// Package lexer scans indexed source files into structural expressions.
//
// Сканер не строит токенов: он читает слова и распознаёт лишь то, что
// влияет на дерево областей — class/module, def, end, открывающие блоки
// ключевые слова и присваивания. Всё остальное возвращается как Unknown.
// Строки, %-литералы, heredoc и комментарии пропускаются целиком, чтобы
// ключевые слова внутри них не сбивали стек вложенности.
package lexer
