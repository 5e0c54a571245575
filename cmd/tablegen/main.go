package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tablekit/tablekit"
)

func main() {
	out := flag.String("out", "model", "output directory for generated files")
	pkg := flag.String("pkg", "model", "package name for generated files")
	flag.Parse()

	cfg, err := tablekit.FromEnv()
	if err != nil {
		log.Fatalf("tablegen: %v", err)
	}
	db, err := tablekit.Open(cfg)
	if err != nil {
		log.Fatalf("tablegen: %v", err)
	}
	defer db.Close()

	g := tablekit.NewGenerator(db)
	g.SetOutDir(*out)
	g.SetPackage(*pkg)
	g.SetLog(func(messages ...any) {
		fmt.Fprintln(os.Stderr, messages...)
	})
	if err := g.Run(); err != nil {
		log.Fatalf("tablegen: %v", err)
	}
}
