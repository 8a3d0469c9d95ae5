package mysql

const businessColumns = `id, name, slug, place_id, location, description, owner_id, created_at`

const insertBusinessSQL = `
INSERT INTO businesses
  (id, name, slug, place_id, location, description, owner_id, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP(6)))
`

const updateDescriptionSQL = `UPDATE businesses SET description = ? WHERE id = ?`

const deleteBusinessSQL = `DELETE FROM businesses WHERE id = ?`

const getBusinessBySlugSQL = `SELECT ` + businessColumns + ` FROM businesses WHERE slug = ?`

const getBusinessByIDSQL = `SELECT ` + businessColumns + ` FROM businesses WHERE id = ?`

const listBusinessesSQL = `SELECT ` + businessColumns + ` FROM businesses ORDER BY created_at DESC, id DESC`

const listSlugsSQL = `SELECT slug FROM businesses`

const waitlistColumns = `id, email, phone_number, name, business_name, business_description, business_url, message, status, created_at`

const insertWaitlistSQL = `
INSERT INTO waitlist
  (id, email, phone_number, name, business_name, business_description, business_url, message, status, created_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP(6)))
`

const listWaitlistSQL = `SELECT ` + waitlistColumns + ` FROM waitlist ORDER BY created_at DESC, id DESC`

const listWaitlistByStatusSQL = `SELECT ` + waitlistColumns + ` FROM waitlist WHERE status = ? ORDER BY created_at DESC, id DESC`

const updateWaitlistStatusSQL = `UPDATE waitlist SET status = ? WHERE id = ?`
