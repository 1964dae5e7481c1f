// Package catalogs embeds the builtin catalog: the base template and filter
// trees and the regional patch sets shipped with formtree.
package catalogs

import (
	"embed"
)

//go:embed *.yaml
var FS embed.FS
