package projections

import (
	"context"
	"time"

	studentStore "dtcteamcrm/internal/adapters/storage/student"
	userStore "dtcteamcrm/internal/adapters/storage/user"
	"dtcteamcrm/internal/application/listutil"
	domainStudent "dtcteamcrm/internal/domain/student"
	domainUser "dtcteamcrm/internal/domain/user"
)

// GetStudentListQuery carries query parameters. ViewerID and ViewerRole
// come from the session; coaches only ever see their own students.
type GetStudentListQuery struct {
	ViewerID   string
	ViewerRole string
	Params     listutil.ListParams
}

// StudentRow is one student in the list view, with the derived fields
// the dashboard table renders next to each name.
type StudentRow struct {
	domainStudent.Student
	CoachName        string
	ContactUrgent    bool
	DaysUntilExpiry  int
	LessonsRemaining int
	InRenewalWindow  bool
	RenewalUrgent    bool
}

// GetStudentListResult carries the query result.
type GetStudentListResult struct {
	Students []StudentRow
	PageInfo listutil.PageInfo
}

// GetStudentListDeps holds dependencies for GetStudentList.
type GetStudentListDeps struct {
	StudentStore StudentStore
	UserStore    UserStore
}

// QueryGetStudentList retrieves a page of students with urgency and
// renewal flags computed against now.
// PRE: ViewerRole is a known role
// POST: Coaches get only students assigned to them; other roles get all
func QueryGetStudentList(ctx context.Context, query GetStudentListQuery, deps GetStudentListDeps, now time.Time) (GetStudentListResult, error) {
	filter := studentStore.ListFilter{
		Status:  query.Params.Filters["status"],
		Package: query.Params.Filters["package"],
		CoachID: query.Params.Filters["coach_id"],
		Search:  query.Params.Search,
		Sort:    query.Params.Sort,
		Dir:     query.Params.Dir,
	}
	if query.ViewerRole == domainUser.RoleCoach {
		filter.CoachID = query.ViewerID
	}

	total, err := deps.StudentStore.Count(ctx, filter)
	if err != nil {
		return GetStudentListResult{}, err
	}
	pageInfo := listutil.NewPageInfo(query.Params.Page, query.Params.PerPage, total)

	filter.Limit = pageInfo.PerPage
	filter.Offset = pageInfo.Offset()
	students, err := deps.StudentStore.List(ctx, filter)
	if err != nil {
		return GetStudentListResult{}, err
	}

	// Coach names for display, one lookup for the whole page.
	coachNames := make(map[string]string)
	if users, err := deps.UserStore.List(ctx, userStore.ListFilter{}); err == nil {
		for _, u := range users {
			coachNames[u.ID] = u.Name
		}
	}

	rows := make([]StudentRow, 0, len(students))
	for _, s := range students {
		inWindow, urgent := s.InRenewalWindow(now)
		rows = append(rows, StudentRow{
			Student:          s,
			CoachName:        coachNames[s.CoachID],
			ContactUrgent:    s.IsContactUrgent(now),
			DaysUntilExpiry:  s.DaysUntilExpiry(now),
			LessonsRemaining: s.LessonsRemaining(),
			InRenewalWindow:  inWindow,
			RenewalUrgent:    urgent,
		})
	}

	return GetStudentListResult{Students: rows, PageInfo: pageInfo}, nil
}
