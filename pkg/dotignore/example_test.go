package dotignore_test

import (
	"fmt"

	"github.com/mahyarmirrashed/dotignore/pkg/dotignore"
)

func ExampleNew() {
	m, err := dotignore.New("node_modules/\n*.log\n!important.log\n")
	if err != nil {
		panic(err)
	}

	fmt.Println(m.Ignore("node_modules/find-up/index.js"))
	fmt.Println(m.Ignore("debug.log"))
	fmt.Println(m.Ignore("important.log"))
	fmt.Println(m.Ignore("package.json"))
	// Output:
	// true
	// true
	// false
	// false
}

func ExampleRuleSet_Explain() {
	rs := dotignore.MustCompile("*.log\n!important.log\n")

	if r, ok := rs.Explain("logs/important.log"); ok {
		fmt.Printf("line %d: %s\n", r.Line, r)
	}
	// Output:
	// line 2: !important.log
}
