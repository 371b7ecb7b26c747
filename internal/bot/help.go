package bot

import "github.com/optiframe/optiframe/internal/inventory"

func helpText() string {
	return "Optical Inventory Bot\n\n" +
		"QUICK ADD:\n" +
		"/new - guided add (answers step by step)\n" +
		"/add model=CODE brand=Brand stock=2 material=plastic lens=52 bridge=18 temple=140 color=black price=120\n" +
		"( /add merges with existing brand+model, increasing stock )\n\n" +
		"EDIT / STOCK:\n" +
		"/update <id> field=value ... | /setstock <id> <n> | /merge <source_id> <target_id> | /delete <id>\n\n" +
		"LOOKUP:\n" +
		"/get <id> | /recent [n] (latest added) | /list [n] (by id asc) | /brand <brand> | /search brand=... color=... min_price=.. max_price=..\n" +
		"/duplicates | /lowstock [th] | /stats | /count\n\n" +
		"DATA EXPORT:\n" +
		"/export [n] (CSV) or /export format=json limit=100 brand=Ray since=2025-01-01\n" +
		"Formats: format=csv|json|text|txt (default csv). Filters: limit=, brand=, since=YYYY-MM-DD.\n" +
		"/backup (full inventory CSV)\n\n" +
		"ALIAS SHORTCUTS:\n" +
		"/ls -> /recent  |  /inv -> /stats  |  /c -> /count\n\n" +
		"MISC:\n" +
		"/ping | /help | /help fields (list and explain all fields)\n\n" +
		"FIELDS (use as key=value in /add or /update):\n" +
		inventory.FieldHelp() + ".\n\n" +
		"Tips: Put spaces inside quotes: color=\"matte black\"   notes=\"spring hinge\".\n" +
		"Use /new if you forget the syntax - it's conversational."
}

func fieldHelpText() string {
	return "Field meanings:\n" +
		"model/model_code: Your internal or manufacturer code (required).\n" +
		"brand: Brand / label (can be empty).\n" +
		"material: Material of frame (e.g., plastic, metal). Unknown defaults to 'unknown'.\n" +
		"lens(lens_width): Lens width in mm.\n" +
		"bridge(bridge_size): Bridge size (mm).\n" +
		"temple(temple_length): Temple arm length (mm).\n" +
		"color: Color or finish (text).\n" +
		"shape: Frame shape (round, rectangular, cat-eye, etc).\n" +
		"gender: Intended audience label (men, women, unisex, kids). Optional.\n" +
		"price: Numeric price (float).\n" +
		"stock: Current quantity on hand (int).\n" +
		"notes: Any free text notes.\n\n" +
		"You can set multiple in one command: /add model=AB12 brand=Ray lens=52 bridge=18 temple=140 color=black price=120 stock=3"
}
