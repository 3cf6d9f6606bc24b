package main

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/argos/pkg/output"
	"github.com/kadirpekel/argos/pkg/qa"
)

// AskCmd answers a question against an indexed folder.
type AskCmd struct {
	Question []string `arg:"" help:"Question to ask."`

	Path    string `short:"p" default:"." help:"Indexed folder." type:"path"`
	Results int    `short:"k" name:"results" default:"5" help:"Number of context chunks to retrieve."`
}

func (c *AskCmd) Run(cli *CLI) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return err
	}

	root, err := resolveRoot(c.Path)
	if err != nil {
		return err
	}

	engine, cleanup, err := buildEngine(cfg, root)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, cancel := signalContext()
	defer cancel()

	question := strings.TrimSpace(strings.Join(c.Question, " "))
	answer, err := engine.Ask(ctx, question, c.Results)
	if err != nil {
		return err
	}

	printAnswer(answer)
	return nil
}

// printAnswer renders the answer panel, the retrieved context, and the
// cited sources.
func printAnswer(answer *qa.Answer) {
	width := output.TerminalWidth()

	fmt.Println(output.Panel("Answer", output.Wrap(answer.Text, width-4, 0), width))

	if len(answer.Chunks) == 0 {
		fmt.Println(output.Dim.Render("No relevant context found in the index."))
		return
	}

	for _, chunk := range answer.Chunks {
		title := fmt.Sprintf("%s  (score %.2f)", qa.Source(chunk), chunk.Score)
		content := output.Wrap(output.Truncate(chunk.Content, 500), width-4, 0)
		fmt.Println(output.Panel(title, content, width))
	}

	if len(answer.Citations) > 0 {
		fmt.Println(output.Section("Sources", output.List(answer.Citations, true, 2), width))
	}
}
