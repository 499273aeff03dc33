package dialect

// builtinStandard is the minimal reference dialect. It is the default.
var builtinStandard = NewDialect("standard").
	Commands("SELECT", "FROM", "WHERE", "LIMIT", "CREATE TABLE").
	DependentClauses("WHEN", "ELSE").
	BinaryCommands("UNION").
	Joins("JOIN").
	JoinConditions("ON", "USING").
	Keywords("BETWEEN", "LIKE", "SQRT").
	Parens("(", ")").
	Parens("[", "]").
	Strings(QuoteSingle).
	Idents(QuoteDouble).
	Operators("<>", "<=", ">=", "!=", "||").
	Build()

var builtinPostgres = NewDialect("postgresql").
	Commands(
		"SELECT", "FROM", "WHERE", "GROUP BY", "HAVING", "ORDER BY",
		"LIMIT", "OFFSET", "FETCH FIRST", "WINDOW", "PARTITION BY",
		"INSERT INTO", "VALUES", "UPDATE", "SET", "DELETE FROM", "RETURNING",
		"ON CONFLICT", "WITH", "CREATE TABLE", "CREATE VIEW", "ALTER TABLE",
		"DROP TABLE", "TRUNCATE TABLE",
	).
	BinaryCommands("UNION", "UNION ALL", "INTERSECT", "INTERSECT ALL", "EXCEPT", "EXCEPT ALL").
	DependentClauses("WHEN", "ELSE").
	Joins(
		"JOIN", "INNER JOIN", "LEFT JOIN", "LEFT OUTER JOIN", "RIGHT JOIN",
		"RIGHT OUTER JOIN", "FULL JOIN", "FULL OUTER JOIN", "CROSS JOIN", "NATURAL JOIN",
	).
	JoinConditions("ON", "USING").
	Keywords(
		"AND", "OR", "NOT", "AS", "BETWEEN", "LIKE", "ILIKE", "IN", "IS", "NULL",
		"CASE", "THEN", "END", "DISTINCT", "TRUE", "FALSE", "ASC", "DESC",
		"EXISTS", "OVER", "FILTER",
	).
	Parens("(", ")").
	Parens("[", "]").
	Strings(QuoteSingle, QuoteEscape, QuoteHex, QuoteBit, QuoteUnicode, QuoteDollar).
	Idents(QuoteDouble).
	ExtraIdentChars("$").
	Operators(
		"::", "->>", "->", "#>>", "#>", "@>", "<@", "||", "&&",
		"<>", "<=", ">=", "!=", "!~*", "!~", "~*",
	).
	Build()

var builtinMySQL = NewDialect("mysql").
	Commands(
		"SELECT", "FROM", "WHERE", "GROUP BY", "HAVING", "ORDER BY", "LIMIT", "OFFSET",
		"INSERT INTO", "REPLACE INTO", "VALUES", "UPDATE", "SET", "DELETE FROM",
		"ON DUPLICATE KEY UPDATE", "WITH", "CREATE TABLE", "ALTER TABLE", "DROP TABLE",
	).
	BinaryCommands("UNION", "UNION ALL", "UNION DISTINCT", "INTERSECT", "EXCEPT").
	DependentClauses("WHEN", "ELSE").
	Joins(
		"JOIN", "INNER JOIN", "LEFT JOIN", "LEFT OUTER JOIN", "RIGHT JOIN",
		"RIGHT OUTER JOIN", "CROSS JOIN", "NATURAL JOIN", "STRAIGHT_JOIN",
	).
	JoinConditions("ON", "USING").
	Keywords(
		"AND", "OR", "XOR", "NOT", "AS", "BETWEEN", "LIKE", "REGEXP", "RLIKE",
		"IN", "IS", "NULL", "CASE", "THEN", "END", "DISTINCT", "DIV", "MOD",
		"ASC", "DESC", "EXISTS", "INTERVAL", "TRUE", "FALSE",
	).
	Parens("(", ")").
	Strings(QuoteSingle, QuoteDouble, QuoteHex, QuoteBit, QuoteNational).
	Idents(QuoteBacktick).
	LineComments("--", "#").
	Operators(":=", "<=>", "->>", "->", "<<", ">>", "&&", "||", "<>", "!=", "<=", ">=").
	Build()

var builtinTSQL = NewDialect("tsql").
	Commands(
		"SELECT", "FROM", "WHERE", "GROUP BY", "HAVING", "ORDER BY", "OFFSET",
		"FETCH NEXT", "INSERT INTO", "VALUES", "UPDATE", "SET", "DELETE FROM",
		"OUTPUT", "MERGE INTO", "DECLARE", "WITH", "CREATE TABLE", "ALTER TABLE", "DROP TABLE",
	).
	BinaryCommands("UNION", "UNION ALL", "INTERSECT", "EXCEPT").
	DependentClauses("WHEN", "ELSE").
	Joins(
		"JOIN", "INNER JOIN", "LEFT JOIN", "LEFT OUTER JOIN", "RIGHT JOIN",
		"RIGHT OUTER JOIN", "FULL JOIN", "FULL OUTER JOIN", "CROSS JOIN",
		"CROSS APPLY", "OUTER APPLY",
	).
	JoinConditions("ON").
	Keywords(
		"AND", "OR", "NOT", "AS", "BETWEEN", "LIKE", "IN", "IS", "NULL",
		"CASE", "THEN", "END", "DISTINCT", "TOP", "ASC", "DESC", "EXISTS", "OVER",
	).
	Parens("(", ")").
	Strings(QuoteSingle, QuoteNational).
	Idents(QuoteDouble, QuoteBracket).
	ExtraIdentChars("@#$").
	Operators("<>", "!=", "<=", ">=", "!<", "!>", "+=", "-=", "*=", "/=", "%=").
	Build()

// Builtins returns the builtin dialects in registration order.
func Builtins() []Config {
	return []Config{
		builtinStandard.Clone(),
		builtinPostgres.Clone(),
		builtinMySQL.Clone(),
		builtinTSQL.Clone(),
	}
}

func init() {
	for _, cfg := range Builtins() {
		Register(cfg)
	}
	if err := SetDefault(builtinStandard.Name); err != nil {
		panic(err)
	}
}
