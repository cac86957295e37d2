package config

import (
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/reportdesk/internal/flagx"
)

// parseFlags reads the connection flags:
//
//	-u string   backend url
//	-k string   public anon key
//	-d string   session database file
//
// Other flags on the command line are ignored.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-u", "-k", "-d"})

	fs := flag.NewFlagSet("reportdesk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.SupabaseURL, "u", cfg.SupabaseURL, "backend url")
	fs.StringVar(&cfg.SupabaseAnonKey, "k", cfg.SupabaseAnonKey, "public anon key")
	fs.StringVar(&cfg.SessionDBPath, "d", cfg.SessionDBPath, "session database file")

	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}
	return nil
}
