// Package fuzztests houses Go fuzz harnesses for the indexing pipeline
// (source -> lexer -> indexer). They guard against panics and broken scope
// trees on arbitrary inputs.
//
// Назначение: загружать байты в FileSet и прогонять их через сканер и
// индексатор, проверяя инварианты таблицы на каждом успешном прогоне.
//
// Не делает: генерацию корпусов, запись файлов, выполнение CLI.
//
// Зависимости: internal/source, internal/lexer, internal/indexer,
// internal/diag, internal/testkit.

package fuzztests
