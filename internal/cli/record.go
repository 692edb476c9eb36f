package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mickamy/recordtrail"
)

func (a *app) newRecordCommand() *cobra.Command {
	var (
		table, key, kind, actor string
		oldJSON, newJSON        string
		precomputed             bool
	)
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record one change of a record",
		Example: `  recordtrail record --table users --key '{"id":7}' --kind update --actor admin \
    --old '{"name":"alice"}' --new '{"name":"bob"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := recordtrail.ParseKind(kind)
			if err != nil {
				return err
			}
			pk, err := recordtrail.ParseKey(key)
			if err != nil {
				return err
			}
			before, err := recordtrail.ParseValues(oldJSON)
			if err != nil {
				return fmt.Errorf("--old: %w", err)
			}
			after, err := recordtrail.ParseValues(newJSON)
			if err != nil {
				return fmt.Errorf("--new: %w", err)
			}

			ctx := cmd.Context()
			rt, err := a.start(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			h, err := rt.handler(nil, nil)
			if err != nil {
				return err
			}
			rec, err := h.Record(ctx, rt.db, recordtrail.Change{
				Table:       table,
				Key:         pk,
				Kind:        k,
				Actor:       actor,
				Old:         before,
				New:         after,
				Precomputed: precomputed,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), rec)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Table the record belongs to")
	cmd.Flags().StringVar(&key, "key", "", `Primary key as a JSON object, e.g. {"id":7}`)
	cmd.Flags().StringVar(&kind, "kind", "", "create, update or delete")
	cmd.Flags().StringVar(&actor, "actor", "", "Who made the change")
	cmd.Flags().StringVar(&oldJSON, "old", "", "Attribute values before the change as a JSON object")
	cmd.Flags().StringVar(&newJSON, "new", "", "Attribute values after the change as a JSON object")
	cmd.Flags().BoolVar(&precomputed, "precomputed", false, "Store --old and --new as given instead of diffing them")
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("kind")
	return cmd
}

func (a *app) newHistoryCommand() *cobra.Command {
	var table, key string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the change history of one record as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			pk, err := recordtrail.ParseKey(key)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			rt, err := a.start(ctx)
			if err != nil {
				return err
			}
			defer rt.close()

			h, err := rt.handler(nil, nil)
			if err != nil {
				return err
			}
			history, err := h.History(ctx, rt.db, table, pk)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), history)
		},
	}
	cmd.Flags().StringVar(&table, "table", "", "Table the record belongs to")
	cmd.Flags().StringVar(&key, "key", "", `Primary key as a JSON object, e.g. {"id":7}`)
	_ = cmd.MarkFlagRequired("table")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
