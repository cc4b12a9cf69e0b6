package postgres

const (
	selectSession = `SELECT
		id,
		config_name,
		user_id,
		user_name,
		user_insz,
		hr_mode,
		fiscal_mode,
		fdm_identifier,
		cash_box_opening_number,
		start_at
	FROM sessions`
)
