// Command gen writes the sample users table in every supported file format.
package main

import (
	"log"
	"path/filepath"

	"github.com/razeghi71/dqflow/exporter"
	"github.com/razeghi71/dqflow/record"
)

type User struct {
	Name string
	Age  int
	City string
}

var users = record.MustMapping(
	record.String("name", func(u *User) *string { return &u.Name }),
	record.Int("age", func(u *User) *int { return &u.Age }),
	record.String("city", func(u *User) *string { return &u.City }),
)

func main() {
	t, err := users.Table([]User{
		{"Alice", 30, "NY"},
		{"Bob", 25, "LA"},
		{"Charlie", 35, "NY"},
		{"Diana", 28, "SF"},
		{"Eve", 22, "LA"},
		{"Frank", 40, "NY"},
	})
	if err != nil {
		log.Fatal(err)
	}

	for _, ext := range []string{".csv", ".json", ".xlsx", ".avro", ".parquet"} {
		if err := exporter.Save(filepath.Join("testdata", "users"+ext), t); err != nil {
			log.Fatal(err)
		}
	}
}
