package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"jmap-bridge/internal/legacy"
	"jmap-bridge/internal/mapper"
	"jmap-bridge/internal/models"
)

func newToJSONCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "to-json FILE...",
		Short: "Convert vCard or iCalendar files to JSON",
		Long: `Convert vCard files to JSContact cards (--kind contact) or iCalendar files to
JSCalendar events (--kind calendar). "-" reads stdin. A vCard file may hold
several cards; each becomes its own entry with id FILE#N.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validateKind(); err != nil {
				return err
			}

			var inputs []mapper.LegacyInput
			for _, path := range args {
				data, err := readInput(cmd, path)
				if err != nil {
					return err
				}
				if opts.kind == kindCalendar {
					inputs = append(inputs, mapper.LegacyInput{ID: path, Data: string(data)})
					continue
				}
				cards, err := legacy.SplitVCards(string(data))
				if err != nil {
					return fmt.Errorf("%s: %w", path, err)
				}
				for i, card := range cards {
					id := path
					if len(cards) > 1 {
						id = path + "#" + strconv.Itoa(i+1)
					}
					inputs = append(inputs, mapper.LegacyInput{ID: id, Data: card})
				}
			}

			resp, err := toJSON(opts, inputs)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
}

func toJSON(opts *options, inputs []mapper.LegacyInput) (interface{}, error) {
	if opts.kind == kindCalendar {
		records, err := mapper.NewCalendarMapper(opts.mapperOptions()).MapToJSON(inputs)
		if err != nil {
			return nil, err
		}
		resp := models.CalendarToJSONResponse{List: make([]models.CalendarEntry, 0, len(records))}
		for _, rec := range records {
			resp.List = append(resp.List, models.CalendarEntry{ID: rec.ID, Events: rec.Data})
		}
		return resp, nil
	}

	dialect, err := opts.parseDialect()
	if err != nil {
		return nil, err
	}
	records, err := mapper.NewContactMapper(dialect, opts.mapperOptions()).MapToJSON(inputs)
	if err != nil {
		return nil, err
	}
	resp := models.ContactToJSONResponse{List: make([]models.ContactEntry, 0, len(records))}
	for _, rec := range records {
		resp.List = append(resp.List, models.ContactEntry{ID: rec.ID, Card: rec.Data})
	}
	return resp, nil
}

func newFromJSONCmd(opts *options) *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "from-json FILE",
		Short: "Convert JSON back to vCard or iCalendar",
		Long: `Convert a JSON file holding {"create": [...]} entries, as accepted by the
from-json HTTP endpoints, back to vCard or iCalendar. Converted records are
written to stdout, or to DIR/<id>.vcf|.ics with --out-dir. Records that
cannot be converted are reported on stderr and make the command fail after
the rest were written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.validateKind(); err != nil {
				return err
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}

			results, err := fromJSON(opts, data)
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if !res.OK() {
					failed++
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", res.ID, res.Err)
					continue
				}
				if outDir == "" {
					fmt.Fprint(cmd.OutOrStdout(), res.Data)
					continue
				}
				if err := writeRecord(outDir, res.ID, opts.kind, res.Data); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d records not converted", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "write one file per record into this directory")
	return cmd
}

func fromJSON(opts *options, data []byte) ([]mapper.Result, error) {
	if opts.kind == kindCalendar {
		var req models.CalendarFromJSONRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
		requests := make([]mapper.CreateRequest[*models.CalendarEvent], 0, len(req.Create))
		for _, entry := range req.Create {
			requests = append(requests, mapper.CreateRequest[*models.CalendarEvent]{ID: entry.ID, Data: entry.Event})
		}
		return mapper.NewCalendarMapper(opts.mapperOptions()).MapFromJSON(requests), nil
	}

	dialect, err := opts.parseDialect()
	if err != nil {
		return nil, err
	}
	var req models.ContactFromJSONRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	requests := make([]mapper.CreateRequest[*models.Card], 0, len(req.Create))
	for _, entry := range req.Create {
		requests = append(requests, mapper.CreateRequest[*models.Card]{ID: entry.ID, Data: entry.Card})
	}
	return mapper.NewContactMapper(dialect, opts.mapperOptions()).MapFromJSON(requests), nil
}

func writeRecord(dir, id, kind, data string) error {
	ext := ".vcf"
	if kind == kindCalendar {
		ext = ".ics"
	}
	name := filepath.Base(filepath.Clean("/" + id))
	if name == "/" || name == "." {
		return fmt.Errorf("record id %q cannot be used as a file name", id)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, name+ext), []byte(data), 0o644)
}
