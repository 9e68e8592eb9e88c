package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/tables"
	"github.com/leisambientais/leischat/internal/termui"
)

var (
	tblMunicipality string
	tblActivity     string
	tblEnterprise   string
	tblKind         string
	tblSpheres      []string
	tblMax          int
	tblFormat       string
	tblOutput       string
)

var tablesCmd = &cobra.Command{
	Use:   "tabela [descrição do projeto]",
	Short: "Generate a legislation table for a project",
	Long: `Generates the table of environmental legislation that applies to a project.
Describe the project as an argument, or pass --municipio and --atividade to
use the manual method. With --saida the table is also exported as CSV or
Excel.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTables,
}

func init() {
	tablesCmd.Flags().StringVar(&tblMunicipality, "municipio", "", "municipality (manual method)")
	tablesCmd.Flags().StringVar(&tblActivity, "atividade", "", "activity type (manual method): "+strings.Join(activityKeys(), ", "))
	tablesCmd.Flags().StringVar(&tblEnterprise, "empreendimento", "", "enterprise description")
	tablesCmd.Flags().StringVar(&tblKind, "tipo", string(backend.TableStructure), "table kind: estrutura or quadro-resumo")
	tablesCmd.Flags().StringSliceVar(&tblSpheres, "esferas", []string{"federal", "estadual", "municipal"}, "legal spheres to search")
	tablesCmd.Flags().IntVar(&tblMax, "max", 20, "maximum number of documents (5-50)")
	tablesCmd.Flags().StringVar(&tblFormat, "formato", tables.FormatCSV, "export format: csv or excel")
	tablesCmd.Flags().StringVar(&tblOutput, "saida", "", "directory to write the exported table to")
	rootCmd.AddCommand(tablesCmd)
}

func activityKeys() []string {
	var keys []string
	for pair := tables.Activities.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

func runTables(cmd *cobra.Command, args []string) error {
	quietLogs()
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	form := tables.New(newBackendClient(cfg))
	r := termui.New(0)

	if len(args) == 1 {
		form.SetMethod(tables.MethodDetailed)
		if m, a := form.Describe(args[0]); m != "" || a != "" {
			fmt.Println(r.Muted(fmt.Sprintf("Município: %s  Atividade: %s", dash(m), dash(tables.ActivityLabel(a)))))
		}
	} else {
		form.SetMethod(tables.MethodManual)
		form.Input.Municipality = tblMunicipality
		form.Input.Activity = tblActivity
	}
	form.Input.EnterpriseDescription = tblEnterprise
	form.Input.Spheres = backend.Spheres{}
	for _, s := range tblSpheres {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "federal":
			form.Input.Spheres.Federal = true
		case "estadual":
			form.Input.Spheres.State = true
		case "municipal":
			form.Input.Spheres.Municipal = true
		}
	}
	form.SetMaxDocuments(tblMax)

	kind := backend.TableKind(tblKind)
	if kind != backend.TableSummary {
		kind = backend.TableStructure
	}
	genErr := form.Generate(ctx, kind)
	success, failure := form.Messages()
	if genErr != nil {
		fmt.Println(r.Error(failure))
		return genErr
	}
	fmt.Println(r.Success(success))

	data, _ := form.Result()
	fmt.Println(r.Table(data.Rows))
	if st := data.Stats; st != nil {
		fmt.Println(r.Muted(fmt.Sprintf("Total: %d  Federais: %d  Estaduais: %d  Municipais: %d",
			st.Total, st.Federal, st.State, st.Municipal)))
	}

	if tblOutput == "" {
		return nil
	}
	name, contents, err := form.Download(ctx, tblFormat)
	if err != nil {
		_, failure := form.Messages()
		fmt.Println(r.Error(failure))
		return err
	}
	path := filepath.Join(tblOutput, name)
	if err := os.MkdirAll(tblOutput, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	success, _ = form.Messages()
	fmt.Println(r.Success(success + " " + path))
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
