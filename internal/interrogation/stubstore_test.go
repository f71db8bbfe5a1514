package interrogation

import (
	"context"
	"strings"
	"time"

	"github.com/mavunolabs/shamba/internal/domain"
)

// stubStore is an in-memory Repository for dialog tests. Only the parts the
// engine touches are implemented with care; reference-data writes are
// straight appends.
type stubStore struct {
	customers  map[string]*domain.Customer // by id
	byPhone    map[string]string           // phone -> id
	misc       map[string]*domain.CustomerMiscData
	plantings  map[string][]*domain.PlantingRecord
	surveys    map[string]*domain.CustomerSurvey // by id
	sessions   map[string]*domain.DialogSession  // by id
	boundaries []*domain.Boundary
	schools    []*domain.School

	finishedCounts map[string]int // title|key|answer -> count

	fieldWrites []map[string]any
}

func newStubStore() *stubStore {
	return &stubStore{
		customers:      map[string]*domain.Customer{},
		byPhone:        map[string]string{},
		misc:           map[string]*domain.CustomerMiscData{},
		plantings:      map[string][]*domain.PlantingRecord{},
		surveys:        map[string]*domain.CustomerSurvey{},
		sessions:       map[string]*domain.DialogSession{},
		finishedCounts: map[string]int{},
	}
}

func (s *stubStore) GetCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	id, ok := s.byPhone[phone]
	if !ok {
		return nil, nil
	}
	return s.customers[id], nil
}

func (s *stubStore) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	s.customers[c.ID] = c
	s.byPhone[c.Phone] = c.ID
	return nil
}

func (s *stubStore) UpdateCustomerFields(ctx context.Context, customerID string, fields map[string]any) error {
	s.fieldWrites = append(s.fieldWrites, fields)
	c, ok := s.customers[customerID]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "first_name":
			c.FirstName = v.(string)
		case "last_name":
			c.LastName = v.(string)
		case "sex":
			c.Sex = v.(string)
		case "region_id":
			c.RegionID = v.(string)
		case "school_id":
			c.SchoolID = v.(string)
		case "is_registered":
			c.IsRegistered = v.(bool)
		case "owns_farm":
			b := v.(bool)
			c.OwnsFarm = &b
		case "farm_size_acres":
			f := v.(float64)
			c.FarmSizeAcres = &f
		case "date_of_birth":
			t := time.Unix(v.(int64), 0).UTC()
			c.DateOfBirth = &t
		}
	}
	return nil
}

func (s *stubStore) ReplaceCommodities(ctx context.Context, customerID, kind string, names []string) error {
	c, ok := s.customers[customerID]
	if !ok {
		return nil
	}
	if kind == domain.CommodityCrop {
		c.Crops = names
	} else {
		c.Livestock = names
	}
	return nil
}

func (s *stubStore) GetMiscData(ctx context.Context, customerID string) (*domain.CustomerMiscData, error) {
	return s.misc[customerID], nil
}

func (s *stubStore) UpsertMiscData(ctx context.Context, md *domain.CustomerMiscData) error {
	s.misc[md.CustomerID] = md
	return nil
}

func (s *stubStore) ListPlantingRecords(ctx context.Context, customerID string) ([]*domain.PlantingRecord, error) {
	return s.plantings[customerID], nil
}

func (s *stubStore) UpsertPlantingRecord(ctx context.Context, rec *domain.PlantingRecord) error {
	recs := s.plantings[rec.CustomerID]
	for i, r := range recs {
		if strings.EqualFold(r.Crop, rec.Crop) {
			recs[i] = rec
			return nil
		}
	}
	s.plantings[rec.CustomerID] = append(recs, rec)
	return nil
}

func (s *stubStore) GetSurvey(ctx context.Context, customerID, title string) (*domain.CustomerSurvey, error) {
	for _, doc := range s.surveys {
		if doc.CustomerID == customerID && doc.Title == title {
			return doc, nil
		}
	}
	return nil, nil
}

func (s *stubStore) CreateSurvey(ctx context.Context, doc *domain.CustomerSurvey) error {
	s.surveys[doc.ID] = doc
	return nil
}

func (s *stubStore) SaveSurveyAnswer(ctx context.Context, surveyID, key, value string) error {
	doc := s.surveys[surveyID]
	if doc.Responses == nil {
		doc.Responses = map[string]string{}
	}
	doc.Responses[key] = value
	return nil
}

func (s *stubStore) FinishSurvey(ctx context.Context, surveyID string, finishedAt time.Time) error {
	doc := s.surveys[surveyID]
	doc.FinishedAt = &finishedAt
	return nil
}

func (s *stubStore) CancelSurvey(ctx context.Context, surveyID string, finishedAt time.Time) error {
	doc := s.surveys[surveyID]
	doc.FinishedAt = &finishedAt
	doc.Cancelled = true
	return nil
}

// CountFinishedSurveys counts stored finished, non-cancelled documents plus
// any preset count (so quota tests can seed a full bucket without building
// documents).
func (s *stubStore) CountFinishedSurveys(ctx context.Context, title, questionKey, answer string) (int, error) {
	n := s.finishedCounts[title+"|"+questionKey+"|"+answer]
	for _, doc := range s.surveys {
		if doc.Title == title && doc.Finished() && !doc.Cancelled && doc.Responses[questionKey] == answer {
			n++
		}
	}
	return n, nil
}

func (s *stubStore) LatestSession(ctx context.Context, phone, flowType string) (*domain.DialogSession, error) {
	var latest *domain.DialogSession
	for _, sess := range s.sessions {
		if sess.Phone != phone || sess.FlowType != flowType {
			continue
		}
		if latest == nil || sess.UpdatedAt.After(latest.UpdatedAt) {
			latest = sess
		}
	}
	return latest, nil
}

func (s *stubStore) SaveSession(ctx context.Context, sess *domain.DialogSession) error {
	cp := *sess
	cp.State = append([]byte(nil), sess.State...)
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *stubStore) ReapSessions(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func (s *stubStore) FindBoundaries(ctx context.Context, name, country string) ([]*domain.Boundary, error) {
	var out []*domain.Boundary
	for _, b := range s.boundaries {
		if strings.EqualFold(b.Name, name) && strings.EqualFold(b.Country, country) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s *stubStore) AddBoundary(ctx context.Context, b *domain.Boundary) error {
	s.boundaries = append(s.boundaries, b)
	return nil
}

func (s *stubStore) ListSchools(ctx context.Context) ([]*domain.School, error) {
	return s.schools, nil
}

func (s *stubStore) AddSchool(ctx context.Context, sc *domain.School) error {
	s.schools = append(s.schools, sc)
	return nil
}

func (s *stubStore) Ping(ctx context.Context) error { return nil }

func (s *stubStore) Close() error { return nil }
