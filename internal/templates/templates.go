package templates

import "embed"

//go:embed scripts
var Scripts embed.FS

const CreateSSHTunnelScriptTemplatePath = "scripts/tunnel/create_ssh_tunnel.hbs"
