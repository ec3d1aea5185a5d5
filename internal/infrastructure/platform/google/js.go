package google

// collectAllVariantsJS mirrors the teacher's browser-side extraction script:
// it walks every alternative creative-sub-container inside the detail page's
// ad-container and returns one candidate content_url per container, with a
// priority order (simgad image > YouTube iframe > sadbundle iframe > adframe
// inner simgad > any other non-safeframe iframe), plus the video/ text
// signals needed to classify the result afterward in Go.
const collectAllVariantsJS = `() => {
	const container = document.querySelector('creative-details .ad-container');
	if (!container) return [];

	const results = [];
	const seen = new Set();
	const allBodyText = document.body ? document.body.innerText : '';
	const isTextAd = /형식\s*[:：]\s*텍스트|Format\s*[:：]\s*Text/i.test(allBodyText);

	const subs = container.querySelectorAll('.creative-sub-container');
	const targets = subs.length > 0 ? Array.from(subs) : [container];

	function extractYtVideoId(src) {
		if (!src) return null;
		let m;
		m = src.match(/ytimg\.com\/vi\/([a-zA-Z0-9_-]{11})/);
		if (m) return m[1];
		m = src.match(/youtube\.com\/embed\/([a-zA-Z0-9_-]{11})/);
		if (m) return m[1];
		m = src.match(/youtube\.com\/watch\?v=([a-zA-Z0-9_-]{11})/);
		if (m) return m[1];
		m = src.match(/youtu\.be\/([a-zA-Z0-9_-]{11})/);
		if (m) return m[1];
		m = src.match(/[?&]video_id=([a-zA-Z0-9_-]{11})/);
		if (m) return m[1];
		return null;
	}

	for (const sub of targets) {
		let url = null;
		let is_video = false;
		let video_url = null;
		let thumb_url = null;
		let youtube_video_id = null;

		const ytIframeCheck = sub.querySelector('iframe[src*="youtube"]');
		const ytVerticalCheck = sub.querySelector('iframe[src*="youtube_vertical_player"]');
		const videoTagCheck = sub.querySelector('video');
		if (ytIframeCheck || ytVerticalCheck || videoTagCheck) is_video = true;

		if (is_video) {
			const ytThumb = sub.querySelector('img[src*="ytimg"]');
			if (ytThumb && ytThumb.src) {
				thumb_url = ytThumb.src;
				if (!youtube_video_id) youtube_video_id = extractYtVideoId(ytThumb.src);
			}
			if (!thumb_url) {
				const simgadThumb = sub.querySelector('img[src*="simgad"]');
				if (simgadThumb && simgadThumb.src) thumb_url = simgadThumb.src;
			}
			if (ytVerticalCheck && ytVerticalCheck.src) {
				video_url = ytVerticalCheck.src;
				if (!youtube_video_id) youtube_video_id = extractYtVideoId(ytVerticalCheck.src);
			} else if (ytIframeCheck && ytIframeCheck.src) {
				video_url = ytIframeCheck.src;
				if (!youtube_video_id) youtube_video_id = extractYtVideoId(ytIframeCheck.src);
			}
			if (videoTagCheck && !video_url) {
				const videoSrc = videoTagCheck.src || videoTagCheck.querySelector('source')?.src;
				if (videoSrc) video_url = videoSrc;
			}
		}

		const img = sub.querySelector('img[src*="simgad"]');
		if (img && img.src) url = img.src;

		const ytIframe = sub.querySelector('iframe[src*="youtube"]');
		if (!url && ytIframe && ytIframe.src) url = ytIframe.src;

		const sbIframe = sub.querySelector('iframe[src*="sadbundle"]');
		if (!url && sbIframe && sbIframe.src) url = sbIframe.src;

		if (!url) {
			const adframeIframe = sub.querySelector('iframe[src*="adframe"]');
			if (adframeIframe) {
				try {
					const innerDoc = adframeIframe.contentDocument || adframeIframe.contentWindow.document;
					if (innerDoc) {
						const innerImg = innerDoc.querySelector('img[src*="simgad"]');
						if (innerImg && innerImg.src) url = innerImg.src;
						if (!url) {
							const innerIframes = innerDoc.querySelectorAll('iframe[src]');
							for (const f of innerIframes) {
								if (f.src && (f.src.includes('simgad') || f.src.includes('youtube'))) { url = f.src; break; }
							}
						}
						if (!is_video) {
							const innerYt = innerDoc.querySelector('iframe[src*="youtube"]');
							const innerVideo = innerDoc.querySelector('video');
							if (innerYt || innerVideo) {
								is_video = true;
								if (innerYt && innerYt.src) {
									video_url = innerYt.src;
									if (!youtube_video_id) youtube_video_id = extractYtVideoId(innerYt.src);
								}
								const innerThumb = innerDoc.querySelector('img[src*="ytimg"]');
								if (innerThumb && innerThumb.src) {
									thumb_url = innerThumb.src;
									if (!youtube_video_id) youtube_video_id = extractYtVideoId(innerThumb.src);
								}
							}
						}
					}
				} catch (e) {}
			}
		}

		if (!url) {
			const allIframes = sub.querySelectorAll('iframe[src]');
			for (const f of allIframes) {
				const s = f.src.toLowerCase();
				if (s && !s.includes('safeframe') && !s.includes('adframe') && !s.startsWith('about:')) { url = f.src; break; }
			}
		}

		let anchor_href = null;
		const anchors = sub.querySelectorAll('a[href]');
		const skipDomains = ['adstransparency.google.com', 'support.google.com', 'policies.google.com', 'safety.google', 'about.google'];
		for (const a of anchors) {
			const h = a.href;
			if (h && h.startsWith('http') && !skipDomains.some(d => h.includes(d))) { anchor_href = h; break; }
		}

		if (!youtube_video_id && url) youtube_video_id = extractYtVideoId(url);

		if (url && !seen.has(url)) {
			seen.add(url);
			results.push({
				content_url: url, anchor_href: anchor_href, is_video: is_video,
				is_text: isTextAd && !is_video,
				ad_copy_text: (isTextAd && !is_video) ? sub.innerText.trim() : null,
				video_url: video_url, thumbnail_url: thumb_url, youtube_video_id: youtube_video_id,
			});
		}

		if (!url && isTextAd) {
			const textContent = sub.innerText.trim();
			if (textContent) {
				const syntheticId = 'text_ad:' + btoa(unescape(encodeURIComponent(textContent.substring(0, 100))));
				if (!seen.has(syntheticId)) {
					seen.add(syntheticId);
					results.push({
						content_url: syntheticId, anchor_href: anchor_href, is_video: false,
						is_text: true, ad_copy_text: textContent, video_url: null,
						thumbnail_url: null, youtube_video_id: null,
					});
				}
			}
		}
	}

	return results;
}`

// extractLandingURLJS mirrors the teacher's landing-URL resolution chain: a
// "Destination" label near the advertiser's real URL, then an external link
// inside the detail panel, then a googleadservices.com redirect's adurl=
// parameter.
const extractLandingURLJS = `() => {
	const allText = document.body ? document.body.innerText : '';
	const destMatch = allText.match(/(?:대상|Destination)[:\s]*(https?:\/\/[^\s]+)/i);
	if (destMatch) return destMatch[1];

	const skipDomains = ['adstransparency.google.com', 'support.google.com', 'policies.google.com',
		'safety.google', 'google.com/ads', 'about.google', 'blog.google', 'googlesyndication.com'];
	const details = document.querySelector('creative-details');
	if (details) {
		const links = details.querySelectorAll('a[href]');
		for (const a of links) {
			const h = a.href;
			if (h && h.startsWith('http') && !skipDomains.some(d => h.includes(d))) return h;
		}
	}

	const html = document.documentElement.innerHTML;
	const adservicesMatch = html.match(/googleadservices\.com[^"']*adurl=(https?[^"&<>\s\\]+)/);
	if (adservicesMatch) return decodeURIComponent(adservicesMatch[1]);

	return '';
}`

// isTextFormatJS detects the "Format: Text" label the teacher's text-ad
// fallback path looks for when no image/video variant was found at all.
const isTextFormatJS = `() => {
	const bodyText = document.body ? document.body.innerText : '';
	return /형식\s*[:：]\s*텍스트|Format\s*[:：]\s*Text/i.test(bodyText);
}`

// adContainerTextJS returns the raw text content of the ad container, used
// for the synthetic text-ad fallback.
const adContainerTextJS = `() => {
	const container = document.querySelector('creative-details .ad-container');
	return container ? container.innerText.trim() : '';
}`
