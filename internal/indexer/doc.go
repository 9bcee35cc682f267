// Package indexer builds scope trees from scanned expressions.
//
// Builder держит курсор — ScopeID текущей области — и реагирует на выражения
// сканера: class/module открывают (или переоткрывают) пространство имён,
// def регистрирует функцию и открывает её тело, end возвращает курсор к
// родителю, присваивание записывает переменную с выведенным типом.
// Первая структурная ошибка прерывает файл.
package indexer
