// gen-config-schema writes the JSON schema reflected from the catalog types.
//
//	go run ./build/gen-config-schema.go [-check] config/schema.json
//
// With -check the file is compared instead of written.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/hktouw/formtree/internal/config"
	"github.com/hktouw/formtree/internal/jsonpatch"
)

func main() {
	check := flag.Bool("check", false, "fail when the schema file is out of date")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatalf("usage: %s [-check] path/to/schema.json", os.Args[0])
	}
	path := flag.Arg(0)

	bs, err := config.ReflectSchema()
	if err != nil {
		log.Fatal(err)
	}
	bs = append(bs, '\n')

	if *check {
		current, err := os.ReadFile(path)
		if err != nil {
			log.Fatal(err)
		}
		if !jsonpatch.Equal(current, bs) {
			log.Fatalf("%s is out of date, run go generate ./config", path)
		}
		return
	}

	if err := os.WriteFile(path, bs, 0o644); err != nil {
		log.Fatal(err)
	}
}
