package main

// Command selects what the binary runs.
type Command string

const (
	// CommandServe starts both services, each on its own port.
	CommandServe Command = "serve"
	// CommandLists starts only the favorites / watchlist service.
	CommandLists Command = "lists"
	// CommandProxy starts only the metadata proxy.
	CommandProxy Command = "proxy"
	// CommandMigrate applies the store schema and exits.
	CommandMigrate Command = "migrate"
	// CommandHealthcheck probes the local lists service, for container
	// health checks on images without curl.
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand reads the subcommand from args (os.Args[1:]). No argument
// or an unknown one means CommandServe.
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandLists, CommandProxy, CommandMigrate, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}

// needsTMDB reports whether cmd serves the proxy.
func (c Command) needsTMDB() bool {
	return c == CommandServe || c == CommandProxy
}

// needsStore reports whether cmd opens the store.
func (c Command) needsStore() bool {
	return c == CommandServe || c == CommandLists || c == CommandMigrate
}
