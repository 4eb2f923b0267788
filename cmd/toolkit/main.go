package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/raywall/pokedex-service/pkg/engine"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validateFile := validateCmd.String("file", "", "Caminho do arquivo YAML (opcional, o ambiente também é lido)")

	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	seedFile := seedCmd.String("file", "", "Caminho do arquivo YAML (opcional, o ambiente também é lido)")

	if len(os.Args) < 2 {
		fmt.Println("Comandos esperados: validate, seed")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "validate":
		_ = validateCmd.Parse(os.Args[2:])
		os.Exit(runValidate(context.Background(), *validateFile, os.Stdout))
	case "seed":
		_ = seedCmd.Parse(os.Args[2:])
		os.Exit(runSeed(context.Background(), *seedFile, os.Stdout))
	default:
		fmt.Println("Comando desconhecido")
		os.Exit(1)
	}
}

func runValidate(ctx context.Context, path string, out io.Writer) int {
	fmt.Fprintf(out, "Analisando configuração: %s ...\n", describe(path))

	cfg, _, err := engine.Load(ctx, path)
	if err != nil {
		fmt.Fprintf(out, "Erro de Carregamento/Estrutura:\n%v\n", err)
		return 1
	}

	report := engine.Analyze(cfg)

	if os.Getenv("OUTPUT_FORMAT") == "json" {
		jsonOutput, _ := json.Marshal(report)
		fmt.Fprintln(out, string(jsonOutput))
	} else {
		for _, w := range report.Warnings {
			fmt.Fprintf(out, " ! %s\n", w)
		}
		if report.Valid {
			fmt.Fprintln(out, "Configuração válida e pronta para deploy!")
		}
	}

	if !report.Valid {
		fmt.Fprintln(out, "A configuração contém erros lógicos:")
		for _, e := range report.Errors {
			fmt.Fprintf(out, " - %s\n", e)
		}
		return 1
	}
	return 0
}

// runSeed apaga o catálogo e o repopula a partir da fonte configurada.
func runSeed(ctx context.Context, path string, out io.Writer) int {
	cfg, lazy, err := engine.Load(ctx, path)
	if err != nil {
		fmt.Fprintf(out, "Erro de configuração: %v\n", err)
		return 1
	}

	awsCfg, err := lazy.Get(ctx)
	if err != nil {
		fmt.Fprintf(out, "Erro ao carregar credenciais AWS: %v\n", err)
		return 1
	}

	svcEngine, err := engine.NewServiceEngine(cfg, awsCfg)
	if err != nil {
		fmt.Fprintf(out, "Erro ao iniciar serviço: %v\n", err)
		return 1
	}
	defer svcEngine.Close(ctx)

	n, err := svcEngine.Seeder.Run(ctx)
	if err != nil {
		fmt.Fprintf(out, "Falha no seed: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "%d pokémons gravados em %s\n", n, cfg.DynamoDB.TableName)
	return 0
}

func describe(path string) string {
	if path == "" {
		return "(somente variáveis de ambiente)"
	}
	return path
}
