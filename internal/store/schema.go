package store

const schema = `
CREATE TABLE IF NOT EXISTS waste_records (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    food_type TEXT NOT NULL,
    weight_grams REAL NOT NULL,
    timestamp TEXT NOT NULL,
    confidence REAL NOT NULL,
    meal_period TEXT,
    image_ref TEXT
);

CREATE INDEX IF NOT EXISTS idx_records_food_type ON waste_records(food_type);
CREATE INDEX IF NOT EXISTS idx_records_timestamp ON waste_records(timestamp);
`
