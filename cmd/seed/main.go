package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/velora-shop/storefront-backend/config"
	"github.com/velora-shop/storefront-backend/internal/app/repository"
	"github.com/velora-shop/storefront-backend/internal/app/service"
	"github.com/velora-shop/storefront-backend/internal/db"
	"github.com/velora-shop/storefront-backend/internal/spreadsheet"
)

func main() {
	assumeYes := flag.Bool("y", false, "import without asking for confirmation")
	flag.Parse()

	if flag.NArg() < 1 {
		log.Fatal("Usage: go run cmd/seed/main.go [-y] <xlsx_file_path>")
	}
	filePath := flag.Arg(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	products, skipped, err := spreadsheet.ReadProducts(f)
	f.Close()
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	for _, s := range skipped {
		fmt.Printf("  skipped row %d: %s\n", s.Row, s.Reason)
	}
	fmt.Printf("Products to import: %d (skipped %d)\n", len(products), len(skipped))
	if len(products) == 0 {
		return
	}

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	productService := service.NewProductService(repository.NewProductRepository(db.GetDB()), nil)
	imported, err := productService.ImportProducts(products)
	if err != nil {
		log.Fatal("Failed to import products:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", imported)
}
