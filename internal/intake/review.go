package intake

// Summary is the read-only projection shown on the review screen.
type Summary struct {
	PersonalInfo      PersonalInfo      `json:"personalInfo"`
	JobDetails        JobDetails        `json:"jobDetails"`
	SkillsPreferences SkillsPreferences `json:"skillsPreferences"`
	EmergencyContact  EmergencyContact  `json:"emergencyContact"`

	Age                     int  `json:"age"`
	ManagerApprovalRequired bool `json:"managerApprovalRequired"`
	GuardianRequired        bool `json:"guardianRequired"`
	Confirmed               bool `json:"confirmed"`
}

// Review aggregates the record of s. It requires all four data steps to be
// complete and copies every slice, so the summary can be handed to a renderer
// without exposing the record.
func (c *Controller) Review(s State) (Summary, error) {
	rec := s.Record
	if !rec.Complete() {
		return Summary{}, ErrIncomplete
	}
	today := c.rules.Today()
	return Summary{
		PersonalInfo:            rec.PersonalInfo.clone(),
		JobDetails:              rec.JobDetails.clone(),
		SkillsPreferences:       rec.SkillsPreferences.clone(),
		EmergencyContact:        *rec.EmergencyContact,
		Age:                     Age(rec.PersonalInfo.DateOfBirth, today),
		ManagerApprovalRequired: rec.SkillsPreferences.RemotePrefer != nil && ApprovalRequired(*rec.SkillsPreferences.RemotePrefer),
		GuardianRequired:        GuardianRequired(rec.PersonalInfo.DateOfBirth, today),
		Confirmed:               rec.Confirmed,
	}, nil
}
