package compton

import _ "embed"

//go:embed version.txt
var Version string

//go:embed compton.default.toml
var DefaultConfig string
