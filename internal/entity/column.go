package entity

// Column is one "name type" pair of a CREATE TABLE statement.
type Column struct {
	Name string
	Type string
}
