package labelsheet_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/porticus-lab/labelsheet"
)

func Example() {
	labels, err := labelsheet.ReadLabels(strings.NewReader("A,B\nC\n"), nil)
	if err != nil {
		log.Fatal(err)
	}

	pages, err := labelsheet.Paginate(labels, 2)
	if err != nil {
		log.Fatal(err)
	}
	for _, pg := range pages {
		fmt.Println(pg.Index+1, pg.Labels)
	}
	// Output:
	// 1 [A B]
	// 2 [C]
}

func ExampleExporter() {
	layout, err := labelsheet.LookupLayout("letter-2x5")
	if err != nil {
		log.Fatal(err)
	}

	// A pure Go rasterizer; use NewBrowserRasterizer for Chrome captures.
	r, err := labelsheet.NewNativeRasterizer(&layout, 1)
	if err != nil {
		log.Fatal(err)
	}

	exp, err := labelsheet.NewExporter(&layout, r,
		labelsheet.WithProgress(func(p labelsheet.Progress) {
			fmt.Printf("page %d/%d: %d%%\n", p.Page, p.Total, p.Percent)
		}),
	)
	if err != nil {
		log.Fatal(err)
	}

	if err := exp.Load(strings.Fields("a b c d e f g h i j k l m n o p q r s t u v w x y")); err != nil {
		log.Fatal(err)
	}
	res, err := exp.Export(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(res.Filename(), res.Pages())
	// Output:
	// page 1/3: 33%
	// page 2/3: 67%
	// page 3/3: 100%
	// labels.pdf 3
}

func ExampleNewBrowserRasterizer() {
	r, err := labelsheet.NewBrowserRasterizer(nil,
		labelsheet.WithTimeout(60*time.Second),
		labelsheet.WithNoSandbox(),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	exp, err := labelsheet.NewExporter(nil, r)
	if err != nil {
		log.Fatal(err)
	}
	labels, err := labelsheet.ReadLabelsFile("labels.csv", nil)
	if err != nil {
		log.Fatal(err)
	}
	if err := exp.Load(labels); err != nil {
		log.Fatal(err)
	}

	res, err := exp.Export(context.Background())
	if err != nil {
		log.Fatal(err)
	}
	if err := res.WriteToFile(res.Filename(), 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d pages\n", res.Pages())
}
