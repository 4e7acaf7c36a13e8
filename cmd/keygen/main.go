package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/alexis077/bookshelf/internal/auth"
	"github.com/alexis077/bookshelf/pkg"
)

// small helper tool for generating a token signing secret and,
// optionally, a bcrypt hash for seeding an admin account password
func main() {
	secretLen := flag.Int("len", 48, "length of the generated signing secret")
	password := flag.String("password", "", "if set, print a bcrypt hash of this password")
	hashCost := flag.Int("cost", 14, "bcrypt cost used for the password hash")
	flag.Parse()

	secret, err := pkg.GenerateRandomString(*secretLen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate signing secret: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("signing secret: %s\n", secret)

	if *password == "" {
		return
	}

	hasher := auth.NewBcryptHasher(*hashCost)
	hash, err := hasher.Hash(*password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash password: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("password hash: %s\n", hash)
}
