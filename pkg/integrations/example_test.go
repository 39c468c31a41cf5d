package integrations_test

import (
	"fmt"

	"github.com/matzehuels/proxysheet/pkg/integrations"
)

func ExampleURLEncode() {
	// Card names are query-escaped for fuzzy lookups
	fmt.Println(integrations.URLEncode("Jace, the Mind Sculptor"))
	fmt.Println(integrations.URLEncode("Fire // Ice"))
	// Output:
	// Jace%2C+the+Mind+Sculptor
	// Fire+%2F%2F+Ice
}

func ExamplePathEscape() {
	fmt.Println(integrations.PathEscape("★7"))
	// Output:
	// %E2%98%857
}
