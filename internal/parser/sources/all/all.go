// Package all imports all available sources for side-effect registration.
//
// Import this package from your main to ensure all sources are registered:
//
//	import _ "github.com/Vodeneev/ncaafbet/internal/parser/sources/all"
package all

import (
	_ "github.com/Vodeneev/ncaafbet/internal/parser/sources/browser"
	_ "github.com/Vodeneev/ncaafbet/internal/parser/sources/espn"
	_ "github.com/Vodeneev/ncaafbet/internal/parser/sources/htmltable"
)
