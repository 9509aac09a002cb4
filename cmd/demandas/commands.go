package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvillagomez/demandas/internal/articleindex"
	"github.com/mvillagomez/demandas/internal/assembler"
	"github.com/mvillagomez/demandas/internal/demanda"
	"github.com/mvillagomez/demandas/internal/export"
	"github.com/mvillagomez/demandas/internal/extract"
	"github.com/mvillagomez/demandas/internal/llm"
	"github.com/mvillagomez/demandas/internal/meter"
	"github.com/mvillagomez/demandas/internal/placeholder"
	"github.com/mvillagomez/demandas/internal/schema"
	"github.com/mvillagomez/demandas/internal/store"
)

func readTextArg(path string) (string, error) {
	var ex extract.FileExtractor
	text, err := ex.ExtractText(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no usable text in %s", path)
	}
	return text, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.DBPath)
}

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Construye el índice de artículos desde el corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			docs, err := extract.LoadCorpus(cfg.CorpusDir)
			if err != nil {
				return err
			}
			ix := articleindex.Build(docs)
			fmt.Printf("%d documentos, %d artículos indexados\n", len(docs), ix.Len())
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <consulta>",
		Short: "Busca artículos por número o palabras clave",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			docs, err := extract.LoadCorpus(cfg.CorpusDir)
			if err != nil {
				return err
			}
			manager := articleindex.NewManager(cfg.CorpusDir)
			manager.Rebuild(docs)

			entries, err := manager.Search(strings.Join(args, " "))
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("== %s, artículo %d (%s)\n%s\n\n",
					e.Document, e.ArticleNumber, manager.SourceLink(e), e.Text)
			}
			return nil
		},
	}
}

func newSegmentCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "segment <archivo>",
		Short: "Separa una demanda en sus secciones canónicas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTextArg(args[0])
			if err != nil {
				return err
			}
			sections := demanda.Segment(text)
			for i, s := range demanda.Sections {
				body, ok := sections[s]
				if !ok {
					continue
				}
				fmt.Printf("%s. - %s:\n%s\n\n", demanda.Ordinal(i+1), s, body)
			}
			return nil
		},
	}
}

func newSchemaCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "schema [archivo]",
		Short: "Deriva el esquema de formulario de una plantilla",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := demanda.COGEPTemplate
			if len(args) == 1 {
				var err error
				text, err = readTextArg(args[0])
				if err != nil {
					return err
				}
			}
			names := placeholder.Discover(text, placeholder.Bracket)
			return printJSON(schema.Derive(names, title))
		},
	}
	cmd.Flags().StringVar(&title, "title", "Demanda", "título del formulario")
	return cmd
}

func newDatosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "datos <archivo>",
		Short: "Extrae nombres, cédulas y edades de una demanda",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTextArg(args[0])
			if err != nil {
				return err
			}
			return printJSON(demanda.ExtractBasicData(text))
		},
	}
}

func newGenerateCmd() *cobra.Command {
	var (
		templateFile string
		fromDoc      string
		caseDir      string
		dataPairs    []string
		dataFile     string
		outPath      string
		interactive  bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Genera una demanda a partir de una plantilla y datos del caso",
		RunE: func(cmd *cobra.Command, args []string) error {
			text := demanda.COGEPTemplate
			if templateFile != "" {
				var err error
				text, err = readTextArg(templateFile)
				if err != nil {
					return err
				}
			}

			data := map[string]string{}
			if dataFile != "" {
				blob, err := os.ReadFile(dataFile)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(blob, &data); err != nil {
					return fmt.Errorf("parse %s: %w", dataFile, err)
				}
			}
			if fromDoc != "" {
				docText, err := readTextArg(fromDoc)
				if err != nil {
					return err
				}
				for section, content := range demanda.ParseSections(docText) {
					if content.Kind == demanda.PlainText {
						data[string(section)] = content.Text
					}
				}
				for k, v := range demanda.ExtractBasicData(docText) {
					if _, ok := data[k]; !ok {
						data[k] = v
					}
				}
				data = demanda.BuildReplacements(data, text)
			}
			for _, pair := range dataPairs {
				k, v, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --data %q, expected CLAVE=valor", pair)
				}
				data[strings.TrimSpace(k)] = strings.TrimSpace(v)
			}

			gen := assembler.New()
			if caseDir != "" {
				caller, st, err := newLLMCaller()
				if err != nil {
					return err
				}
				defer st.Close()
				gen = assembler.New(assembler.RetrievalResolver{
					Retriever: extract.DirRetriever{Dir: caseDir},
					Caller:    caller,
				})
			}
			res, err := gen.Start(cmd.Context(), text, data)
			if err != nil {
				return err
			}

			if !res.Done && interactive {
				scanner := bufio.NewScanner(os.Stdin)
				scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
				for !res.Done {
					fmt.Println(res.Prompt)
					if !scanner.Scan() {
						break
					}
					res, err = gen.Submit(scanner.Text())
					if err != nil {
						return err
					}
				}
				if err := scanner.Err(); err != nil {
					return err
				}
			}

			if !res.Done {
				fmt.Printf("Faltan datos para: %s\n", strings.Join(res.Pending, ", "))
			}
			if outPath != "" {
				return export.WriteTXT(outPath, res.Document)
			}
			fmt.Println(res.Document)
			return nil
		},
	}
	cmd.Flags().StringVar(&templateFile, "template", "", "archivo de plantilla (por defecto la plantilla COGEP integrada)")
	cmd.Flags().StringVar(&fromDoc, "from-doc", "", "demanda existente de la que tomar secciones y datos")
	cmd.Flags().StringVar(&caseDir, "case-dir", "", "directorio con documentos del caso para resolver valores con el modelo")
	cmd.Flags().StringArrayVar(&dataPairs, "data", nil, "dato del caso, CLAVE=valor (repetible)")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "archivo JSON con datos del caso")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "archivo de salida (por defecto stdout)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "pedir por consola los valores faltantes")
	return cmd
}

func newLLMCaller() (llm.Caller, *store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	m := meter.New(st, meter.Pricing{
		InPerMillion:  cfg.Credits.InPerMillion,
		OutPerMillion: cfg.Credits.OutPerMillion,
	}, cfg.Credits.Enforce, nil)
	caller, err := llm.NewAnthropicCallerFromEnv(cfg.Model, m)
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	return caller, st, nil
}

func newAnonymizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anonymize <archivo>",
		Short: "Convierte una demanda en plantilla con marcadores {{NOMBRE}}",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTextArg(args[0])
			if err != nil {
				return err
			}
			caller, st, err := newLLMCaller()
			if err != nil {
				return err
			}
			defer st.Close()

			template, fields, err := llm.GenerateTemplate(cmd.Context(), caller, text)
			if err != nil {
				return err
			}
			return printJSON(map[string]any{"plantilla": template, "campos": fields})
		},
	}
}

func newEntitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entities <archivo>",
		Short: "Extrae las entidades relevantes de un texto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTextArg(args[0])
			if err != nil {
				return err
			}
			caller, st, err := newLLMCaller()
			if err != nil {
				return err
			}
			defer st.Close()

			entities, err := llm.ExtractEntities(cmd.Context(), caller, text)
			if err != nil {
				return err
			}
			return printJSON(entities)
		},
	}
}

func newExportCmd() *cobra.Command {
	var (
		outPath string
		title   string
		asPDF   bool
	)
	cmd := &cobra.Command{
		Use:   "export <archivo>",
		Short: "Exporta una demanda a TXT o PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readTextArg(args[0])
			if err != nil {
				return err
			}
			if outPath == "" {
				return fmt.Errorf("--out is required")
			}
			if !asPDF {
				return export.WriteTXT(outPath, text)
			}
			pdf, err := export.NewChromiumPDFRenderer().Render(cmd.Context(), title, text)
			if err != nil {
				return err
			}
			return os.WriteFile(outPath, pdf, 0o644)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "archivo de salida")
	cmd.Flags().StringVar(&title, "title", "Demanda", "título del documento")
	cmd.Flags().BoolVar(&asPDF, "pdf", false, "exportar como PDF en lugar de TXT")
	return cmd
}

func newCreditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Consulta y recarga el saldo de créditos",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "balance",
			Short: "Muestra el saldo actual",
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				balance, err := st.Balance()
				if err != nil {
					return err
				}
				fmt.Printf("saldo: %.4f\n", balance)
				return nil
			},
		},
		&cobra.Command{
			Use:   "add <monto>",
			Short: "Recarga el saldo",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				amount, err := strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("invalid amount %q", args[0])
				}
				st, err := openStore()
				if err != nil {
					return err
				}
				defer st.Close()
				return st.AddCredit(amount)
			},
		},
	)
	return cmd
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Muestra cuántas demandas se han generado por tipo",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()
			counts, err := st.CaseCounts()
			if err != nil {
				return err
			}
			return printJSON(counts)
		},
	}
}
