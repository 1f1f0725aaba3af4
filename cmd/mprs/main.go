package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"mprs/internal/assist"
	"mprs/internal/config"
	"mprs/internal/dashboard"
	"mprs/internal/db"
	"mprs/internal/domain"
	"mprs/internal/engine"
	"mprs/internal/grid"
	"mprs/internal/migrate"
	"mprs/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "mprs",
	Short: "Material Purchase Requisition Slips",
	Long: `mprs drafts, submits, and archives Material Purchase Requisition Slips
for a construction unit.

- Workspace: the .mprs directory next to you, holding the requisition
  history and event log in a single SQLite database.
- Submit: rows come in as tab-delimited text (a spreadsheet paste) from
  a file or stdin; rows without an item name and a numeric quantity are
  dropped, and a submission with no usable rows is rejected.
- History: every submitted requisition is archived most-recent-first and
  searchable by MPRS number, title, or item name.
- Export: any requisition renders to the fixed-layout MPRS paper form as
  an A4 PDF.
- Assist: optional remote suggestions (item specifications, insight
  summaries); set the API key env named in mprs.yml to enable.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("MPRS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "diagnostic logging")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(submitCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(specCmd())
	rootCmd.AddCommand(insightsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(serveCmd())
}

func newLogger() *zap.Logger {
	if !viper.GetBool("verbose") {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// withEngine opens the workspace database, migrates it, and hands a
// ready engine to fn.
func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	e := engine.New(conn, cfg, newLogger())
	if key := os.Getenv(cfg.Assist.APIKeyEnv); key != "" {
		e.Assist = assist.New(cfg.Assist.Endpoint, cfg.Assist.Model, key)
	}
	return fn(ctx, e)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRequisitions(items []domain.Requisition) error {
	if viper.GetBool("json") {
		return printJSON(items)
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"MPRS No", "Date", "Title", "Department", "Status", "Items"})
	for _, req := range items {
		t.AppendRow(table.Row{req.MPRSNo, req.MPRSDate, req.Title, req.Department, req.Status, len(req.Items)})
	}
	t.Render()
	return nil
}

func printItems(items []domain.LineItem) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Sl", "Item", "Specification", "Qty", "Unit", "Purpose", "Lead", "Code", "Remarks"})
	for i, item := range items {
		t.AppendRow(table.Row{i + 1, item.ItemName, item.Specification, item.Quantity, item.Unit,
			item.Purpose, item.LeadTime, item.ItemCode, item.Remarks})
	}
	t.Render()
}

func submitCmd() *cobra.Command {
	var file, title, department, no, date string
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a requisition from tab-delimited rows",
		Long: `Reads tab-delimited rows (item name, specification, quantity, unit,
purpose, lead time, item code, remarks) from --file or stdin, exactly as
pasted out of a spreadsheet, and submits them as one requisition.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(file)
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				g := grid.New(e.Config.Vocabulary.Units)
				if !g.IngestPaste(raw) {
					return fmt.Errorf("input has no tab-delimited rows")
				}
				if title == "" {
					title = e.Config.Form.Title
				}
				req, err := e.Submit(ctx, engine.Draft{
					MPRSNo:     no,
					MPRSDate:   date,
					Title:      title,
					Department: department,
					Items:      g.Rows(),
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(req)
				}
				fmt.Printf("submitted %d item(s) as %s (%s)\n", len(req.Items), displayNo(req.MPRSNo), req.MPRSDate)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "tab-delimited input file, - for stdin")
	cmd.Flags().StringVar(&title, "title", "", "requisition title")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&no, "no", "", "MPRS number (optional)")
	cmd.Flags().StringVar(&date, "date", "", "MPRS date (YYYY-MM-DD, defaults to today)")
	return cmd
}

func displayNo(no string) string {
	if no == "" {
		return "(no number)"
	}
	return no
}

func readInput(file string) (string, error) {
	if file == "" || file == "-" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(file)
	return string(data), err
}

func historyCmd() *cobra.Command {
	hist := &cobra.Command{Use: "history", Short: "Browse stored requisitions"}
	hist.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List requisitions, most recent first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.History(ctx)
				if err != nil {
					return err
				}
				return printRequisitions(items)
			})
		},
	})
	hist.AddCommand(&cobra.Command{
		Use:   "show <mprs-no>",
		Short: "Show one requisition with its items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				req, err := e.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(req)
				}
				fmt.Printf("%s  %s  %s  %s  %s\n", req.MPRSNo, req.MPRSDate, req.Title, req.Department, req.Status)
				printItems(req.Items)
				return nil
			})
		},
	})
	hist.AddCommand(&cobra.Command{
		Use:   "search <term>",
		Short: "Search by MPRS number, title, or item name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.Search(ctx, args[0])
				if err != nil {
					return err
				}
				return printRequisitions(items)
			})
		},
	})
	return hist
}

func statsCmd() *cobra.Command {
	var weekly bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Dashboard counts over the stored history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if weekly {
					buckets, err := e.Weekly(ctx)
					if err != nil {
						return err
					}
					return printWeekly(buckets)
				}
				s, err := e.Stats(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(s)
				}
				t := table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.AppendHeader(table.Row{"Total", "Pending", "Approved", "Ordered"})
				t.AppendRow(table.Row{s.Total, s.Pending, s.Approved, s.Ordered})
				t.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&weekly, "weekly", false, "show per-weekday activity")
	return cmd
}

func printWeekly(buckets []dashboard.WeekdayCount) error {
	if viper.GetBool("json") {
		return printJSON(buckets)
	}
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Day", "Count"})
	for _, b := range buckets {
		t.AppendRow(table.Row{b.Day, b.Count})
	}
	t.Render()
	return nil
}

func exportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export <mprs-no>",
		Short: "Export a stored requisition as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				data, name, err := e.ExportStored(ctx, args[0])
				if err != nil {
					return fmt.Errorf("could not generate document: %w", err)
				}
				if out == "" {
					out = name
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return err
				}
				fmt.Println("wrote", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to the document name)")
	return cmd
}

func suggestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <item-name>",
		Short: "Recent precedent for an item name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.SuggestHistory(ctx, args[0])
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				if len(items) == 0 {
					fmt.Println("no precedent")
					return nil
				}
				t := table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.AppendHeader(table.Row{"Date", "Qty", "Purpose"})
				for _, s := range items {
					t.AppendRow(table.Row{s.Date, s.Quantity, s.Purpose})
				}
				t.Render()
				return nil
			})
		},
	}
}

func specCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spec <item-name>",
		Short: "Remote specification suggestion for an item name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if e.Assist == nil {
					fmt.Println("assist not configured; set the API key env named in mprs.yml")
					return nil
				}
				spec, err := e.Assist.SuggestSpecification(ctx, args[0])
				if err != nil || spec == "" {
					fmt.Println("no suggestion")
					return nil
				}
				fmt.Println(spec)
				return nil
			})
		},
	}
}

func insightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Short insight summaries over the stored history",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				for _, line := range e.InsightSummaries(ctx) {
					fmt.Println("-", line)
				}
				return nil
			})
		},
	}
}

func logCmd() *cobra.Command {
	var limit int
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				evts, err := e.Events.Tail(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				t := table.NewWriter()
				t.SetOutputMirror(os.Stdout)
				t.AppendHeader(table.Row{"TS", "Type", "Entity", "Payload"})
				for _, evt := range evts {
					t.AppendRow(table.Row{evt.TS, evt.Type, evt.EntityID, evt.Payload})
				}
				t.Render()
				return nil
			})
		},
	}
	tail.Flags().IntVar(&limit, "limit", 20, "number of events")
	logCmd := &cobra.Command{Use: "log", Short: "Event log"}
	logCmd.AddCommand(tail)
	return logCmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Workspace configuration"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default mprs.yml into the workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	})
	return cfg
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				handler, err := server.New(server.Config{Engine: e})
				if err != nil {
					return err
				}
				logger := newLogger()
				logger.Info("serving", zap.String("addr", addr))
				fmt.Println("listening on", addr)
				return http.ListenAndServe(addr, handler)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8787", "listen address")
	return cmd
}
