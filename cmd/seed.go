package main

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/insight-pipeline/internal/db"
	"github.com/sells-group/insight-pipeline/internal/store"
)

var (
	seedUsersPath   string
	seedClientsPath string
)

var userColumns = []string{"id", "email", "full_name", "role", "team"}
var clientColumns = []string{"id", "name", "industry", "description"}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Bulk-load reference users and clients from CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("seed"); err != nil {
			return err
		}
		if seedUsersPath == "" && seedClientsPath == "" {
			return eris.New("at least one of --users or --clients is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return eris.Wrap(err, "init store")
		}
		defer st.Close()

		pg, ok := st.(*store.PostgresStore)
		if !ok {
			return eris.New("seed uses the COPY protocol and requires the postgres driver")
		}

		if seedUsersPath != "" {
			rows, err := readSeedCSV(seedUsersPath, len(userColumns))
			if err != nil {
				return eris.Wrap(err, "read users csv")
			}
			n, err := db.CopyFrom(ctx, pg.Pool(), "app_users", userColumns, rows)
			if err != nil {
				return err
			}
			zap.L().Info("seeded users", zap.Int64("rows", n), zap.String("csv", seedUsersPath))
		}

		if seedClientsPath != "" {
			rows, err := readSeedCSV(seedClientsPath, len(clientColumns))
			if err != nil {
				return eris.Wrap(err, "read clients csv")
			}
			n, err := db.CopyFrom(ctx, pg.Pool(), "clients", clientColumns, rows)
			if err != nil {
				return err
			}
			zap.L().Info("seeded clients", zap.Int64("rows", n), zap.String("csv", seedClientsPath))
		}

		return nil
	},
}

// readSeedCSV parses a headered CSV into COPY rows, requiring exactly
// wantCols columns per record.
func readSeedCSV(path string, wantCols int) ([][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = wantCols

	// Skip header
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, eris.Errorf("%s is empty", path)
		}
		return nil, eris.Wrapf(err, "read %s header", path)
	}

	var rows [][]any
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "read %s", path)
		}
		row := make([]any, len(record))
		for i, v := range record {
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func init() {
	seedCmd.Flags().StringVar(&seedUsersPath, "users", "", "path to users CSV (id,email,full_name,role,team)")
	seedCmd.Flags().StringVar(&seedClientsPath, "clients", "", "path to clients CSV (id,name,industry,description)")
	rootCmd.AddCommand(seedCmd)
}
