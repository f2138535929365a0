package store

const marketColumns = `week, category, market,
	current_volume, current_price, prior_volume, prior_price,
	ytd_current_volume, ytd_current_price, ytd_prior_volume, ytd_prior_price,
	volume_growth_percent, price_change_percent`

const portColumns = `port_id, port_name, port_country, port_latitude, port_longitude,
	visit_count, unique_vessels, avg_stay_hours, total_trade_hours,
	first_visit, last_visit, processing_date`

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS market_records (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		week INTEGER NOT NULL,
		category TEXT NOT NULL,
		market TEXT NOT NULL,
		current_volume REAL NOT NULL,
		current_price REAL NOT NULL,
		prior_volume REAL NOT NULL,
		prior_price REAL NOT NULL,
		ytd_current_volume REAL NOT NULL,
		ytd_current_price REAL NOT NULL,
		ytd_prior_volume REAL NOT NULL,
		ytd_prior_price REAL NOT NULL,
		volume_growth_percent REAL NOT NULL,
		price_change_percent REAL NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_records_week ON market_records (week, category)`,
	`CREATE TABLE IF NOT EXISTS port_summaries (
		port_id TEXT NOT NULL,
		port_name TEXT NOT NULL,
		port_country TEXT NOT NULL,
		port_latitude REAL,
		port_longitude REAL,
		visit_count INTEGER NOT NULL,
		unique_vessels INTEGER NOT NULL,
		avg_stay_hours REAL NOT NULL,
		total_trade_hours REAL NOT NULL,
		first_visit TEXT NOT NULL,
		last_visit TEXT NOT NULL,
		processing_date TEXT NOT NULL
	)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS market_records (
		id BIGSERIAL PRIMARY KEY,
		week INTEGER NOT NULL,
		category TEXT NOT NULL,
		market TEXT NOT NULL,
		current_volume DOUBLE PRECISION NOT NULL,
		current_price DOUBLE PRECISION NOT NULL,
		prior_volume DOUBLE PRECISION NOT NULL,
		prior_price DOUBLE PRECISION NOT NULL,
		ytd_current_volume DOUBLE PRECISION NOT NULL,
		ytd_current_price DOUBLE PRECISION NOT NULL,
		ytd_prior_volume DOUBLE PRECISION NOT NULL,
		ytd_prior_price DOUBLE PRECISION NOT NULL,
		volume_growth_percent DOUBLE PRECISION NOT NULL,
		price_change_percent DOUBLE PRECISION NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_market_records_week ON market_records (week, category)`,
	`CREATE TABLE IF NOT EXISTS port_summaries (
		port_id TEXT NOT NULL,
		port_name TEXT NOT NULL,
		port_country TEXT NOT NULL,
		port_latitude DOUBLE PRECISION,
		port_longitude DOUBLE PRECISION,
		visit_count INTEGER NOT NULL,
		unique_vessels INTEGER NOT NULL,
		avg_stay_hours DOUBLE PRECISION NOT NULL,
		total_trade_hours DOUBLE PRECISION NOT NULL,
		first_visit TEXT NOT NULL,
		last_visit TEXT NOT NULL,
		processing_date TEXT NOT NULL
	)`,
}
