package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"shift-production/internal/form"
	"shift-production/internal/session"
)

func newSubmitCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "submit FILE",
		Short: "Submit a shift entry from a JSON or YAML file",
		Long: `Reads a form payload, replays it through a session so every selection is
checked against the server's option lists, validates it and submits it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := readTree(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd)
			defer cancel()

			s := session.New(newLogger(cmd), newClient())
			defer s.Close()

			if err := s.Load(ctx); err != nil {
				return err
			}
			if err := s.Apply(ctx, tree); err != nil {
				return err
			}

			if dryRun {
				if err := form.Validate(s.Tree()); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "valid: %d rows\n", s.Tree().EntryCount())
				return nil
			}

			rows := s.Tree().EntryCount()
			if err := s.Submit(ctx); err != nil {
				var ve *form.ValidationError
				if errors.As(err, &ve) {
					return fmt.Errorf("invalid entry: %s", ve.Message)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "submitted %d rows\n", rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate without submitting")
	return cmd
}

// readTree decodes a JSON or YAML payload. YAML goes through JSON so the
// same field names and date handling apply to both.
func readTree(path string) (*form.Tree, error) {
	const op = "shiftctl.readTree"

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if raw, err = json.Marshal(scalarsToStrings(doc)); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	var tree form.Tree
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &tree, nil
}

// scalarsToStrings turns YAML numbers, booleans and timestamps into strings;
// every leaf of a form payload is a string.
func scalarsToStrings(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = scalarsToStrings(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = scalarsToStrings(e)
		}
		return t
	case nil, string:
		return t
	case time.Time:
		return t.Format(form.DateLayout)
	default:
		return fmt.Sprint(t)
	}
}
