// opkit_translate reads a model description in JSON and renders it in the target format,
// layer by layer, using the standard generators.
//
// Usage:
//
//	opkit_translate model.json          Translate the model and print the generated code.
//	opkit_translate -report model.json  Also print a per-layer report table.
//	opkit_translate -list               List the supported layer types and exit.
//
// Layers with no registered generator (or with malformed attributes) are reported to
// stderr and the exit status is non-zero, but all translatable layers are still rendered.
package main

import (
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/janpfeifer/must"
	"go.uber.org/multierr"
	"k8s.io/klog/v2"

	"github.com/gomlx/opkit/translate"
	"github.com/gomlx/opkit/translate/generators"
)

var (
	flagList = flag.Bool("list", false, "List the supported layer types and exit.")
	flagReport = flag.Bool("report", false, "Print a per-layer report table after the generated code, "+
		"with each layer's name, type and number of outputs.")
)

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newPlainTable(withHeader bool) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row == 1 {
				s = headerRowStyle
				return
			}
			switch {
			case row%2 == 0:
				s = oddRowStyle
			default:
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	reg := translate.NewRegistry()
	must.M(generators.RegisterStandard(reg))
	reg.Freeze()

	if *flagList {
		layerTypes := reg.SupportedTypes()
		slices.Sort(layerTypes)
		fmt.Println(strings.Join(layerTypes, "\n"))
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		klog.Errorf("Expected exactly one model file to translate. See 'opkit_translate -help'.")
		os.Exit(1)
	}
	file := must.M1(os.Open(args[0]))
	model := must.M1(translate.ReadModelJSON(file))
	must.M(file.Close())

	outputs, err := reg.TranslateModel(model)
	for _, output := range outputs {
		fmt.Println(output.Code)
	}

	if *flagReport {
		fmt.Println(titleStyle.Render(fmt.Sprintf("Model %q", model.Name)))
		table := newPlainTable(true)
		table.Row("Layer", "Type", "Outputs", "Generated")
		var totalBytes uint64
		for _, output := range outputs {
			table.Row(output.Layer.Name, output.Layer.Type,
				humanize.Comma(int64(output.NumOutputs)), humanize.Bytes(uint64(len(output.Code))))
			totalBytes += uint64(len(output.Code))
		}
		fmt.Println(table.Render())
		fmt.Printf("%s of %s layers translated, %s generated.\n",
			humanize.Comma(int64(len(outputs))), humanize.Comma(int64(len(model.Layers))),
			humanize.Bytes(totalBytes))
	}

	if err != nil {
		for _, layerErr := range multierr.Errors(err) {
			klog.Errorf("%v", layerErr)
		}
		os.Exit(1)
	}
}
