// Command csvclean cleans raw CSV exports by applying schema-specific
// standardisation and validation rules.
//
//	csvclean clean [--csv a.csv b.csv] [--stats] [--limit N]
//	csvclean serve
//	csvclean rules
//	csvclean history [dataset]
//
// Settings come from the environment (and a .env file); flags override
// them.
package main
