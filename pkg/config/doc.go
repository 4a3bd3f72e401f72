/*
Package config loads and validates run settings for metacopy.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   JSON   | |   YAML   | |   HCL    |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🔄 Flow:
1. Start from Default()
2. Pick a parser by file extension and decode over the defaults
3. Validate fills blanks, cleans paths and rejects unusable values
4. Command line flags override whatever the file set

Unknown keys are errors in every format.

🔍 Example:

	# metacopy.hcl
	input_dir      = "trim_meta"
	output_dir     = "${env.HOME}/datasets/copied_files_with_metadata"
	progress_every = 250
	workers        = 4

	cfg, err := config.Load(ctx, "metacopy.hcl")
*/
package config
