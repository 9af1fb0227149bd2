package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"petboard/api"
	"petboard/backend/geo"
	"petboard/common"
	"petboard/listing"

	"github.com/apex/log"
	_ "github.com/go-sql-driver/mysql"
)

const reportColumns = `id, type, user_id, breed, remarks, location, latitude, longitude, image_url, reward, ts`

const schema = `CREATE TABLE IF NOT EXISTS pet_reports (
	seq INT NOT NULL AUTO_INCREMENT,
	id CHAR(36) NOT NULL,
	type TINYINT NOT NULL,
	user_id VARCHAR(255) NOT NULL DEFAULT '',
	breed VARCHAR(255) NOT NULL DEFAULT '',
	remarks TEXT,
	location VARCHAR(255) NOT NULL DEFAULT '',
	latitude DOUBLE NOT NULL,
	longitude DOUBLE NOT NULL,
	image_url VARCHAR(1024) NOT NULL DEFAULT '',
	reward DECIMAL(12, 2) NOT NULL DEFAULT 0,
	ts TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (seq),
	UNIQUE INDEX id_idx (id),
	INDEX type_seq_idx (type, seq),
	INDEX latlng_idx (latitude, longitude)
)`

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create pet_reports table: %w", err)
	}
	return nil
}

// ListReports returns one page of reports of a type, newest first.
func ListReports(ctx context.Context, db *sql.DB, t listing.ReportType, page, size int) (*api.PageResponse, error) {
	// One extra row tells whether this is the last page.
	rows, err := db.QueryContext(ctx, `SELECT `+reportColumns+`
		FROM pet_reports
		WHERE type = ?
		ORDER BY seq DESC
		LIMIT ? OFFSET ?`,
		t.Discriminator(), size+1, page*size)
	if err != nil {
		log.Errorf("Could not list %s reports: %v", t, err)
		return nil, err
	}
	defer rows.Close()

	reports, err := scanReports(rows)
	if err != nil {
		return nil, err
	}
	return toPage(reports, page, size), nil
}

// SearchReports matches the keyword against both report types. Region
// searches the location label, breed the breed, and all of them also the
// remarks.
func SearchReports(ctx context.Context, db *sql.DB, keyword string, category listing.SearchCategory, page, size int) (*api.PageResponse, error) {
	where, args := keywordClause(keyword, category)
	args = append(args, size+1, page*size)

	rows, err := db.QueryContext(ctx, `SELECT `+reportColumns+`
		FROM pet_reports
		WHERE `+where+`
		ORDER BY seq DESC
		LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		log.Errorf("Could not search reports for %q: %v", keyword, err)
		return nil, err
	}
	defer rows.Close()

	reports, err := scanReports(rows)
	if err != nil {
		return nil, err
	}
	return toPage(reports, page, size), nil
}

// RadiusReports returns every report of a type within meters of the center,
// nearest first.
func RadiusReports(ctx context.Context, db *sql.DB, t listing.ReportType, lat, lng, meters float64, keyword string, category listing.SearchCategory) ([]api.Report, error) {
	circle := geo.NewCircle(lat, lng, meters)
	box := circle.Bounds()

	conds := []string{"type = ?", "latitude >= ?", "latitude <= ?"}
	args := []any{t.Discriminator(), box.LatMin, box.LatMax}
	if box.WrapsLng {
		conds = append(conds, "(longitude >= ? OR longitude <= ?)")
	} else {
		conds = append(conds, "longitude >= ?", "longitude <= ?")
	}
	args = append(args, box.LngMin, box.LngMax)
	if keyword != "" {
		where, kwArgs := keywordClause(keyword, category)
		conds = append(conds, where)
		args = append(args, kwArgs...)
	}

	rows, err := db.QueryContext(ctx, `SELECT `+reportColumns+`
		FROM pet_reports
		WHERE `+strings.Join(conds, " AND "),
		args...)
	if err != nil {
		log.Errorf("Could not retrieve %s reports around (%f, %f): %v", t, lat, lng, err)
		return nil, err
	}
	defer rows.Close()

	candidates, err := scanReports(rows)
	if err != nil {
		return nil, err
	}
	r := make([]api.Report, 0, len(candidates))
	for _, rep := range candidates {
		if !circle.Contains(rep.Latitude, rep.Longitude) {
			continue
		}
		rep.Distance = circle.DistanceMeters(rep.Latitude, rep.Longitude)
		r = append(r, rep)
	}
	sort.SliceStable(r, func(i, j int) bool { return r[i].Distance < r[j].Distance })
	return r, nil
}

func SaveReport(ctx context.Context, db *sql.DB, id string, t listing.ReportType, args *api.ReportArgs) error {
	result, err := db.ExecContext(ctx, `INSERT
	  INTO pet_reports (id, type, user_id, breed, remarks, location, latitude, longitude, image_url, reward)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.Discriminator(), args.UserID, args.Breed, args.Remarks, args.Location,
		args.Latitude, args.Longitude, args.ImageURL, args.Reward)
	common.LogResult("saveReport", result, err, true)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// ReadReport returns the report with the given id, or nil when there is none.
func ReadReport(ctx context.Context, db *sql.DB, id string) (*api.Report, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+reportColumns+`
		FROM pet_reports
		WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports, err := scanReports(rows)
	if err != nil {
		return nil, err
	}
	// Take only the first row, ids are unique.
	if len(reports) == 0 {
		return nil, nil
	}
	return &reports[0], nil
}

func keywordClause(keyword string, category listing.SearchCategory) (string, []any) {
	like := "%" + escapeLike(keyword) + "%"
	switch category {
	case listing.CategoryRegion:
		return "location LIKE ?", []any{like}
	case listing.CategoryBreed:
		return "breed LIKE ?", []any{like}
	}
	return "(breed LIKE ? OR location LIKE ? OR remarks LIKE ?)", []any{like, like, like}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanReports(rows *sql.Rows) ([]api.Report, error) {
	r := make([]api.Report, 0)
	for rows.Next() {
		var (
			rep     api.Report
			remarks sql.NullString
		)
		if err := rows.Scan(&rep.ID, &rep.Type, &rep.UserID, &rep.Breed, &remarks, &rep.Location,
			&rep.Latitude, &rep.Longitude, &rep.ImageURL, &rep.Reward, &rep.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		rep.Remarks = remarks.String
		r = append(r, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return r, nil
}

func toPage(reports []api.Report, page, size int) *api.PageResponse {
	last := len(reports) <= size
	if !last {
		reports = reports[:size]
	}
	return &api.PageResponse{
		Content: reports,
		Last:    last,
		Page:    page,
		Size:    size,
	}
}
