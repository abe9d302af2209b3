package scoring

// scale weights answers 1..n in the order given, weakest first.
func scale(texts ...string) []Option {
	opts := make([]Option, len(texts))
	for i, t := range texts {
		opts[i] = Option{Text: t, Weight: i + 1}
	}
	return opts
}

func init() {
	register(&Rubric{
		Type:   "ccrl",
		Title:  "Career Comeback Readiness Level",
		Ladder: SixBand,
		Blend:  &DefaultBlend,
		Categories: []Category{
			{Key: "skillsCurrency", Label: "Skills Currency and Industry Knowledge", Options: scale(
				"My skills are significantly outdated",
				"I am aware of gaps but have not started addressing them",
				"I have started refreshing some key skills",
				"Most of my skills are current with minor gaps",
				"My skills are fully current and I follow industry trends",
			)},
			{Key: "networking", Label: "Networking and Professional Relationships", Options: scale(
				"I have lost touch with my professional network",
				"I have a few contacts but rarely engage with them",
				"I have reconnected with some former colleagues",
				"I maintain an active network and attend events occasionally",
				"I have a strong, engaged network that is actively supporting my return",
			)},
			{Key: "confidence", Label: "Confidence and Mindset", Options: scale(
				"I feel anxious and unsure about returning to work",
				"I have significant doubts about my abilities",
				"I feel cautiously optimistic",
				"I feel mostly confident about my return",
				"I feel fully confident and motivated to return",
			)},
			{Key: "jobSearchStrategy", Label: "Job Search Strategy", Options: scale(
				"I have not started looking for opportunities",
				"I browse job postings without a clear plan",
				"I have identified target roles and companies",
				"I am applying regularly with a tailored approach",
				"I have a structured plan with applications, referrals and follow-ups",
			)},
			{Key: "careerGapNarrative", Label: "Career Gap Narrative", Options: scale(
				"I avoid talking about my career gap",
				"I am unsure how to explain my career gap",
				"I have a basic explanation of my career gap",
				"I can explain my gap and what I gained from it",
				"I present my gap confidently as part of my professional story",
			)},
			{Key: "personalLogistics", Label: "Personal Logistics and Support", Options: scale(
				"I have not considered how work will fit into my current life",
				"I have major logistical barriers to resolve",
				"I have a partial plan for childcare, schedules or other needs",
				"Most logistics are arranged with some uncertainty",
				"All logistics and support systems are in place",
			)},
			{Key: "learningAgility", Label: "Learning Agility", Options: scale(
				"I find it hard to pick up new tools or processes",
				"I learn new things slowly and need a lot of guidance",
				"I can learn new skills with some effort",
				"I adapt quickly to new tools and processes",
				"I actively seek out and master new skills on my own",
			)},
		},
	})

	register(&Rubric{
		Type:   "cdrl",
		Title:  "Career Development Readiness Level",
		Ladder: FourBand,
		Categories: []Category{
			{Key: "goalClarity", Label: "Career Goal Clarity", Options: scale(
				"I have no clear career goals",
				"I have vague ideas about where I want to go",
				"I have general goals but no timeline",
				"I have clear goals with a rough timeline",
				"I have specific, measurable goals with milestones",
			)},
			{Key: "skillDevelopment", Label: "Skill Development", Options: scale(
				"I am not currently developing new skills",
				"I occasionally learn something new",
				"I take training when my employer offers it",
				"I follow a personal learning plan",
				"I continuously build skills aligned to my goals",
			)},
			{Key: "mentorship", Label: "Mentorship and Sponsorship", Options: scale(
				"I have no mentors or sponsors",
				"I have informal advice from peers",
				"I have one mentor I speak to occasionally",
				"I meet regularly with a mentor",
				"I have mentors and sponsors advocating for my growth",
			)},
			{Key: "performanceVisibility", Label: "Performance Visibility", Options: scale(
				"My contributions are largely unnoticed",
				"My manager knows some of my work",
				"My work is recognized within my team",
				"My work is recognized across departments",
				"Leadership actively recognizes my impact",
			)},
			{Key: "leadership", Label: "Leadership Experience", Options: scale(
				"I have no leadership experience",
				"I have led small tasks informally",
				"I have led projects within my team",
				"I have led cross-functional initiatives",
				"I manage people or programs with clear results",
			)},
			{Key: "feedback", Label: "Feedback Orientation", Options: scale(
				"I rarely receive or seek feedback",
				"I receive feedback only in formal reviews",
				"I ask for feedback occasionally",
				"I seek feedback regularly and act on it",
				"I have a consistent feedback loop driving my growth",
			)},
		},
	})

	register(&Rubric{
		Type:   "ctrl",
		Title:  "Career Transition Readiness Level",
		Ladder: FourBand,
		Categories: []Category{
			{Key: "targetClarity", Label: "Target Role Clarity", Options: scale(
				"I do not know what field I want to move into",
				"I am considering several unrelated options",
				"I have narrowed it down to one or two fields",
				"I have a specific target role in mind",
				"I have a target role validated through research and conversations",
			)},
			{Key: "transferableSkills", Label: "Transferable Skills", Options: scale(
				"I have not identified any transferable skills",
				"I think some skills may transfer but I am unsure which",
				"I have listed my transferable skills",
				"I can map my skills to the target role requirements",
				"I can demonstrate my transferable skills with concrete examples",
			)},
			{Key: "industryKnowledge", Label: "Target Industry Knowledge", Options: scale(
				"I know very little about the target industry",
				"I have read a few articles about the industry",
				"I understand the main players and trends",
				"I have spoken with people working in the industry",
				"I have deep knowledge from research, courses and industry contacts",
			)},
			{Key: "financialRunway", Label: "Financial Runway", Options: scale(
				"I cannot afford any income disruption",
				"I could manage a very short gap",
				"I have a few months of savings",
				"I have six months or more of savings",
				"I have a financial plan that fully covers the transition",
			)},
			{Key: "credentials", Label: "Credentials and Training", Options: scale(
				"I lack the required credentials and have no plan",
				"I know which credentials I need",
				"I have enrolled in relevant training",
				"I have completed some required credentials",
				"I hold the credentials the target role requires",
			)},
			{Key: "transitionNetwork", Label: "Network in Target Field", Options: scale(
				"I know no one in the target field",
				"I know one or two people loosely",
				"I have had a few informational interviews",
				"I have several active contacts in the field",
				"I have referrals and advocates in the target field",
			)},
		},
	})

	register(&Rubric{
		Type:   "fjrl",
		Title:  "First Job Readiness Level",
		Ladder: FourBand,
		Categories: []Category{
			{Key: "resumeQuality", Label: "Resume Quality", Options: scale(
				"I do not have a resume yet",
				"I have a draft resume that needs significant work",
				"I have a complete resume that has not been reviewed",
				"I have a resume reviewed by a mentor or career service",
				"I have a polished resume tailored to each application",
			)},
			{Key: "workExperience", Label: "Work and Internship Experience", Options: scale(
				"I have no work or volunteer experience",
				"I have occasional volunteer or part-time work",
				"I have one internship or part-time job",
				"I have multiple internships or relevant jobs",
				"I have substantial relevant experience with references",
			)},
			{Key: "interviewSkills", Label: "Interview Skills", Options: scale(
				"I have never practiced interviewing",
				"I have read about interviews but not practiced",
				"I have done a mock interview",
				"I have interviewed for several positions",
				"I interview confidently and receive offers",
			)},
			{Key: "professionalEtiquette", Label: "Professional Etiquette", Options: scale(
				"I am unfamiliar with workplace norms",
				"I know some basics of professional communication",
				"I am comfortable with email and meeting etiquette",
				"I consistently communicate professionally",
				"I model professional behaviour others can follow",
			)},
			{Key: "careerDirection", Label: "Career Direction", Options: scale(
				"I have no idea what job I want",
				"I am exploring many different options",
				"I have a few fields in mind",
				"I know the type of role I want",
				"I have a clear target role and a plan to get there",
			)},
		},
	})

	register(&Rubric{
		Type:   "ijrl",
		Title:  "Ideal Job Readiness Level",
		Ladder: FourBand,
		Categories: []Category{
			{Key: "valuesAlignment", Label: "Values Alignment", Options: scale(
				"I have not thought about what I value in work",
				"I have a vague sense of my work values",
				"I can name my top work values",
				"I evaluate opportunities against my values",
				"My job search is fully guided by clearly defined values",
			)},
			{Key: "strengthsAwareness", Label: "Strengths Awareness", Options: scale(
				"I am not sure what my strengths are",
				"I can name a few strengths without evidence",
				"I know my strengths from feedback",
				"I have validated my strengths through assessments and results",
				"I deliberately seek roles that use my core strengths",
			)},
			{Key: "marketResearch", Label: "Market Research", Options: scale(
				"I have not researched where my ideal job exists",
				"I have searched job boards a few times",
				"I have a list of target employers",
				"I have researched culture, pay and growth at target employers",
				"I have insider insight into my target employers",
			)},
			{Key: "negotiation", Label: "Negotiation Readiness", Options: scale(
				"I would accept the first offer I receive",
				"I am uncomfortable negotiating",
				"I know my market value roughly",
				"I have researched compensation and prepared talking points",
				"I negotiate confidently with data and alternatives",
			)},
			{Key: "personalBrand", Label: "Personal Brand", Options: scale(
				"I have no online professional presence",
				"I have a basic profile that is out of date",
				"I have an up-to-date professional profile",
				"I share content or work samples occasionally",
				"I have a recognized personal brand in my field",
			)},
			{Key: "decisionCriteria", Label: "Decision Criteria", Options: scale(
				"I have no criteria for choosing between offers",
				"I would mostly decide on salary",
				"I consider a few factors beyond salary",
				"I have a weighted list of criteria",
				"I have clear criteria and walk-away conditions",
			)},
		},
	})

	register(&Rubric{
		Type:   "irl",
		Title:  "Interview Readiness Level",
		Ladder: FourBand,
		Categories: []Category{
			{Key: "companyResearch", Label: "Company Research", Options: scale(
				"I do not research companies before interviews",
				"I skim the company website",
				"I research the company's products and mission",
				"I research the company, team and interviewers",
				"I prepare a tailored view of how I can add value to the company",
			)},
			{Key: "behavioralAnswers", Label: "Behavioral Answers", Options: scale(
				"I struggle to answer behavioral questions",
				"I answer with general statements",
				"I have a few prepared stories",
				"I use a structured method like STAR for most answers",
				"I have a bank of structured stories mapped to competencies",
			)},
			{Key: "technicalPreparation", Label: "Technical Preparation", Options: scale(
				"I do not prepare for technical questions",
				"I review basics the night before",
				"I practice some common technical questions",
				"I practice regularly with realistic exercises",
				"I am thoroughly prepared for technical assessments in my field",
			)},
			{Key: "communication", Label: "Communication and Presence", Options: scale(
				"I get very nervous and lose my train of thought",
				"I am nervous but can get through the interview",
				"I communicate adequately with some hesitation",
				"I communicate clearly and confidently",
				"I build strong rapport and communicate persuasively",
			)},
			{Key: "questionsForInterviewer", Label: "Questions for the Interviewer", Options: scale(
				"I do not ask any questions",
				"I ask about salary and benefits only",
				"I ask a few generic questions",
				"I ask thoughtful questions about the role",
				"I ask insightful questions that show strategic thinking",
			)},
			{Key: "followUp", Label: "Follow-up", Options: scale(
				"I never follow up after interviews",
				"I follow up only when I hear nothing for weeks",
				"I send a brief thank-you note sometimes",
				"I send a personalized thank-you note after every interview",
				"I follow up with a tailored note reinforcing my fit",
			)},
		},
	})

	register(&Rubric{
		Type:   "rrl",
		Title:  "Retirement Readiness Level",
		Ladder: FourBand,
		Categories: []Category{
			{Key: "financialPlanning", Label: "Financial Planning", Options: scale(
				"I have no retirement financial plan",
				"I have some savings but no plan",
				"I have a basic plan I review rarely",
				"I have a detailed plan reviewed yearly",
				"I have a comprehensive plan with a financial advisor",
			)},
			{Key: "purposeAndIdentity", Label: "Purpose and Identity", Options: scale(
				"My identity is entirely tied to my job",
				"I have not considered life beyond work",
				"I have some interests outside of work",
				"I have clear plans for meaningful activities",
				"I have a strong sense of purpose beyond my career",
			)},
			{Key: "healthAndWellbeing", Label: "Health and Wellbeing", Options: scale(
				"I have significant unmanaged health concerns",
				"I pay little attention to my health",
				"I maintain my health reasonably well",
				"I have healthy routines and regular checkups",
				"I have a long-term health and wellbeing plan",
			)},
			{Key: "socialConnections", Label: "Social Connections", Options: scale(
				"Most of my social life is through work",
				"I have a few connections outside of work",
				"I have a moderate social circle outside of work",
				"I have an active social life outside of work",
				"I have a strong community I am deeply involved in",
			)},
			{Key: "transitionPlan", Label: "Transition Plan", Options: scale(
				"I have no plan for when or how to retire",
				"I have a rough idea of when I want to retire",
				"I know my target date but not the steps",
				"I have a phased transition plan",
				"I have a phased plan agreed with my employer and family",
			)},
		},
	})
}
