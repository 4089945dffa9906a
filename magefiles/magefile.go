//go:build mage

package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/joho/godotenv"
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binary  = "bin/pledgewall"
	mainPkg = "./cmd/pledgewall"
)

// Dbup runs dbmate against db/migrations/<driver>. DATABASE_URL selects the
// target; a sqlite: or sqlite3: URL picks the SQLite migrations.
func Dbup() error {
	if _, err := exec.LookPath("dbmate"); err != nil {
		fmt.Println(">> dbmate not found; install with:")
		fmt.Println("   go install github.com/amacneil/dbmate/v2@latest")
		return err
	}
	dir := "db/migrations/postgres"
	if strings.HasPrefix(os.Getenv("DATABASE_URL"), "sqlite") {
		dir = "db/migrations/sqlite"
	}
	fmt.Println(">> dbmate up", dir)
	return sh.Run("dbmate", "--migrations-dir", dir, "up")
}

// Migrate applies the schema through the binary, using the same config as serve.
func Migrate() error {
	mg.Deps(Build)
	fmt.Println(">> pledgewall migrate")
	return sh.RunV(binary, "migrate")
}

// Build tidies deps, then compiles to ./bin/pledgewall stamped with the git
// version when one is available.
func Build() error {
	mg.Deps(Tidy)
	version := "dev"
	if out, err := sh.Output("git", "describe", "--tags", "--always", "--dirty"); err == nil && out != "" {
		version = out
	}
	fmt.Println(">> Building", binary, version)
	return sh.Run("go", "build", "-ldflags", "-X main.Version="+version, "-o", binary, mainPkg)
}

// Run builds then executes the server.
func Run() error {
	mg.Deps(Build)
	fmt.Println(">> Starting server on :8080 ...")
	return sh.RunV(binary, "serve")
}

// Dev starts the server via go run with development logging.
func Dev() error {
	fmt.Println(">> Dev mode: go run", mainPkg)
	cmd := exec.Command("go", "run", mainPkg, "serve")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = append(os.Environ(), "PORT=8080", "LOG_MODE=dev")
	return cmd.Run()
}

// Certificate renders a sample certificate into ./bin for eyeballing layout
// changes.
func Certificate() error {
	mg.Deps(Build)
	for _, format := range []string{"png", "pdf"} {
		if err := sh.RunV(binary, "certificate",
			"--name", "Ada Lovelace",
			"--commitments", "Compost organic waste regularly",
			"--commitments", "Cycle or walk for short distances",
			"--format", format,
			"--out", "bin",
		); err != nil {
			return err
		}
	}
	return nil
}

// Tidy runs go mod tidy.
func Tidy() error {
	fmt.Println(">> go mod tidy...")
	return sh.Run("go", "mod", "tidy")
}

// Test runs all unit tests with the race detector.
func Test() error {
	fmt.Println(">> Running tests...")
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs golangci-lint if available.
func Lint() error {
	if _, err := exec.LookPath("golangci-lint"); err != nil {
		fmt.Println(">> golangci-lint not found; skipping.")
		return nil
	}
	return sh.Run("golangci-lint", "run", "./...")
}

// Clean removes build artifacts and the local SQLite DB.
func Clean() error {
	fmt.Println(">> Cleaning...")
	os.Remove("pledges.db")
	return os.RemoveAll("bin")
}

// Install builds and installs the binary to $GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	return sh.Run("go", "install", mainPkg)
}

func init() {
	err := godotenv.Load()
	if err != nil {
		slog.Warn("error loading .env file", "err", err)
	}
}
